package traffic

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmdmdm-nz/trafficd/internal/display"
	"github.com/dmdmdm-nz/trafficd/internal/netmon"
	"github.com/dmdmdm-nz/trafficd/internal/runtime"
	log "github.com/sirupsen/logrus"
)

// DefaultPollInterval is the delay between two counter samples.
const DefaultPollInterval = time.Second

// Poller samples the packet counters of one interface while it is connected
// and the screen is on, and tells its subscribers whenever the direction of
// traffic changes.
//
// Every field below the executor is read and written only from tasks running
// on the executor. Restarting the poll cycle bumps the generation token; a
// delayed tick whose token is no longer current does nothing, so pending
// ticks never need cancelling.
type Poller struct {
	exec     runtime.Executor
	looper   *runtime.Looper
	reader   netmon.CounterReader
	interval time.Duration
	logger   *log.Logger
	base     log.Level

	iface        string
	enabled      bool
	token        int
	counters     netmon.Counters
	activity     Activity
	screenOn     bool
	connectivity *netmon.DetailedState
	subscribers  []Endpoint
	verbose      int

	ifCh        <-chan netmon.ConnectivityEvent
	ifUnsub     func()
	screenCh    <-chan display.PowerEvent
	screenUnsub func()

	closeOnce sync.Once
}

// Option configures a Poller.
type Option func(*Poller)

// WithExecutor runs the poller on exec instead of a dedicated Looper.
func WithExecutor(exec runtime.Executor) Option {
	return func(p *Poller) {
		p.exec = exec
		p.looper = nil
	}
}

// WithInterval sets the sampling period.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// NewPoller creates a poller for interfaceName that samples through reader.
func NewPoller(interfaceName string, reader netmon.CounterReader, opts ...Option) *Poller {
	std := log.StandardLogger()
	logger := log.New()
	logger.SetOutput(std.Out)
	logger.SetFormatter(std.Formatter)
	logger.SetLevel(std.GetLevel())

	looper := runtime.NewLooper("traffic")
	p := &Poller{
		exec:     looper,
		looper:   looper,
		reader:   reader,
		interval: DefaultPollInterval,
		logger:   logger,
		base:     std.GetLevel(),
		iface:    interfaceName,
		// The first power event may be missed at startup.
		screenOn: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AttachNetmon wires the connectivity stream (must be called before Start).
func (p *Poller) AttachNetmon(ch <-chan netmon.ConnectivityEvent, unsub func()) {
	p.ifCh = ch
	p.ifUnsub = unsub
}

// AttachDisplay wires the screen power stream (must be called before Start).
func (p *Poller) AttachDisplay(ch <-chan display.PowerEvent, unsub func()) {
	p.screenCh = ch
	p.screenUnsub = unsub
}

func (p *Poller) Start(ctx context.Context) error {
	if p.looper != nil {
		go func() { _ = p.looper.Run(ctx) }()
	}

	log.WithField("interval", p.interval).Info("Starting traffic poller")
	defer log.Info("Stopping traffic poller")

	ifCh, screenCh := p.ifCh, p.screenCh
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ifCh:
			if !ok {
				ifCh = nil
				continue
			}
			p.onLinkEvent(ev)
		case ev, ok := <-screenCh:
			if !ok {
				screenCh = nil
				continue
			}
			p.OnScreenPower(ev.On)
		}
	}
}

// Close detaches the input streams and stops the executor. Subscribers are
// not closed; they belong to whoever added them.
func (p *Poller) Close() error {
	p.closeOnce.Do(func() {
		if p.ifUnsub != nil {
			p.ifUnsub()
		}
		if p.screenUnsub != nil {
			p.screenUnsub()
		}
		if p.looper != nil {
			_ = p.looper.Close()
		}
	})
	return nil
}

func (p *Poller) post(what string, task func()) {
	if err := p.exec.Post(task); err != nil {
		p.logger.WithField("op", what).WithError(err).Debug("Dropping request")
	}
}

// AddSubscriber registers ep. Registering the same endpoint twice delivers
// every notification to it twice.
func (p *Poller) AddSubscriber(ep Endpoint) {
	p.post("add-subscriber", func() {
		p.subscribers = append(p.subscribers, ep)
		p.logger.WithFields(log.Fields{
			"subscriber":  ep.ID(),
			"subscribers": len(p.subscribers),
		}).Debug("Added subscriber")
	})
}

// RemoveSubscriber drops the first registration of ep, if any.
func (p *Poller) RemoveSubscriber(ep Endpoint) {
	p.post("remove-subscriber", func() {
		for i, sub := range p.subscribers {
			if sub.ID() != ep.ID() {
				continue
			}
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			p.logger.WithFields(log.Fields{
				"subscriber":  ep.ID(),
				"subscribers": len(p.subscribers),
			}).Debug("Removed subscriber")
			return
		}
	})
}

// Subscribe registers a ChannelEndpoint and returns its channel together with
// a function that unregisters and closes it.
func (p *Poller) Subscribe() (<-chan Notification, func()) {
	ep := NewChannelEndpoint(8)
	p.AddSubscriber(ep)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			p.RemoveSubscriber(ep)
			ep.Close()
		})
	}
	return ep.C(), unsub
}

// SetInterface retargets the poller. Counters, activity and the connectivity
// baseline start over; the screen state and subscribers are kept.
func (p *Poller) SetInterface(interfaceName string) {
	p.post("set-interface", func() {
		p.logger.WithFields(log.Fields{
			"from": p.iface,
			"to":   interfaceName,
		}).Debug("Switching interface")
		p.iface = interfaceName
		p.counters = netmon.Counters{}
		p.activity = ActivityNone
		p.connectivity = nil
	})
}

func (p *Poller) OnConnectivityChanged(state netmon.DetailedState) {
	p.post("connectivity", func() {
		p.connectivity = &state
		p.evaluate()
	})
}

// onLinkEvent drops events for an interface other than the current one, which
// can still be queued right after SetInterface.
func (p *Poller) onLinkEvent(ev netmon.ConnectivityEvent) {
	p.post("connectivity", func() {
		if ev.InterfaceName != p.iface {
			p.logger.WithField("interface", ev.InterfaceName).Debug("Ignoring connectivity of another interface")
			return
		}
		p.connectivity = &ev.State
		p.evaluate()
	})
}

func (p *Poller) OnScreenPower(on bool) {
	p.post("screen-power", func() {
		p.screenOn = on
		p.evaluate()
	})
}

// SetVerboseLogging raises the poller's log level: 1 logs directives and
// notifications, 2 and above logs every sample.
func (p *Poller) SetVerboseLogging(level int) {
	switch {
	case level >= 2:
		p.logger.SetLevel(log.TraceLevel)
	case level == 1:
		p.logger.SetLevel(log.DebugLevel)
	default:
		p.logger.SetLevel(p.base)
	}
	p.post("verbose", func() { p.verbose = level })
}

// evaluate does nothing until the first connectivity report arrives.
func (p *Poller) evaluate() {
	if p.connectivity == nil {
		return
	}
	p.setPollingEnabled(*p.connectivity == netmon.StateConnected && p.screenOn)
}

func (p *Poller) setPollingEnabled(enable bool) {
	p.enabled = enable
	if enable {
		p.token++
	}
	p.logger.WithFields(log.Fields{
		"interface": p.iface,
		"enabled":   enable,
		"token":     p.token,
	}).Debug("Traffic polling directive")

	if !enable {
		return
	}
	p.sample()
	p.scheduleTick(p.token)
}

func (p *Poller) scheduleTick(token int) {
	if err := p.exec.PostDelayed(p.interval, func() { p.tick(token) }); err != nil {
		p.logger.WithError(err).Debug("Failed to schedule poll")
	}
}

func (p *Poller) tick(token int) {
	if !p.enabled || token != p.token {
		p.logger.WithFields(log.Fields{
			"token":   token,
			"current": p.token,
			"enabled": p.enabled,
		}).Trace("Ignoring stale poll")
		return
	}
	p.sample()
	p.scheduleTick(token)
}

func (p *Poller) sample() {
	prev := p.counters
	cur, err := p.reader.ReadCounters(p.iface)
	if err != nil {
		p.logger.WithField("interface", p.iface).WithError(err).Debug("Skipping poll, counters unavailable")
		return
	}
	p.counters = cur

	p.logger.WithFields(log.Fields{
		"interface":   p.iface,
		"subscribers": len(p.subscribers),
		"tx":          cur.TxPackets,
		"rx":          cur.RxPackets,
	}).Trace("Sampled packet counters")

	// No baseline yet.
	if prev.TxPackets == 0 && prev.RxPackets == 0 {
		return
	}

	activity := activityBetween(prev, cur)
	if activity == p.activity || !p.screenOn {
		return
	}
	p.activity = activity
	p.notify(activity)
}

func (p *Poller) notify(activity Activity) {
	p.logger.WithFields(log.Fields{
		"interface":   p.iface,
		"activity":    activity.String(),
		"subscribers": len(p.subscribers),
	}).Debug("Notifying data activity")

	n := Notification{Kind: KindDataActivity, Activity: activity}
	for _, sub := range p.subscribers {
		if err := sub.Send(n); err != nil {
			p.logger.WithField("subscriber", sub.ID()).WithError(err).Debug("Failed to reach subscriber")
		}
	}
}

// State is a read-only snapshot of the poller.
type State struct {
	Interface    string   `json:"interface"`
	Enabled      bool     `json:"enabled"`
	Token        int      `json:"token"`
	TxPackets    uint64   `json:"txPackets"`
	RxPackets    uint64   `json:"rxPackets"`
	Activity     Activity `json:"activity"`
	ScreenOn     bool     `json:"screenOn"`
	Connectivity string   `json:"connectivity,omitempty"`
	Subscribers  int      `json:"subscribers"`
	Verbose      int      `json:"verbose"`
}

// Snapshot copies the poller state on the executor. It must not be called
// from a task running on that executor.
func (p *Poller) Snapshot(ctx context.Context) (State, error) {
	result := make(chan State, 1)
	err := p.exec.Post(func() {
		st := State{
			Interface:   p.iface,
			Enabled:     p.enabled,
			Token:       p.token,
			TxPackets:   p.counters.TxPackets,
			RxPackets:   p.counters.RxPackets,
			Activity:    p.activity,
			ScreenOn:    p.screenOn,
			Subscribers: len(p.subscribers),
			Verbose:     p.verbose,
		}
		if p.connectivity != nil {
			st.Connectivity = string(*p.connectivity)
		}
		result <- st
	})
	if err != nil {
		return State{}, err
	}

	select {
	case st := <-result:
		return st, nil
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}

// DumpState renders Snapshot as one "name value" pair per line.
func (p *Poller) DumpState(ctx context.Context) (string, error) {
	st, err := p.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	connectivity := st.Connectivity
	if connectivity == "" {
		connectivity = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "interface %s\n", st.Interface)
	fmt.Fprintf(&b, "enabled %t\n", st.Enabled)
	fmt.Fprintf(&b, "token %d\n", st.Token)
	fmt.Fprintf(&b, "txPackets %d\n", st.TxPackets)
	fmt.Fprintf(&b, "rxPackets %d\n", st.RxPackets)
	fmt.Fprintf(&b, "activity %s\n", st.Activity)
	fmt.Fprintf(&b, "screenOn %t\n", st.ScreenOn)
	fmt.Fprintf(&b, "connectivity %s\n", connectivity)
	fmt.Fprintf(&b, "subscribers %d\n", st.Subscribers)
	return b.String(), nil
}
