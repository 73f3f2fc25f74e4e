package api

import (
	"net/http"

	"github.com/Masterminds/semver"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/trafficd/internal/traffic"
	"github.com/dmdmdm-nz/trafficd/pkg/version"
)

// checkProtocol rejects clients that speak an older notification protocol.
// Clients that do not announce one are accepted.
func checkProtocol(announced string) (int, string) {
	if announced == "" {
		return http.StatusOK, ""
	}

	clientVersion, err := semver.NewVersion(announced)
	if err != nil {
		return http.StatusBadRequest, "invalid protocol version"
	}
	if clientVersion.LessThan(semver.MustParse(version.MinProtocol)) {
		return http.StatusUpgradeRequired, "protocol " + announced + " is below the minimum " + version.MinProtocol
	}
	return http.StatusOK, ""
}

// streamActivity sends the current activity, then every notification, as JSON
// text frames until the client goes away.
func (s *Service) streamActivity(w http.ResponseWriter, r *http.Request) {
	if status, msg := checkProtocol(r.URL.Query().Get("protocol")); status != http.StatusOK {
		http.Error(w, msg, status)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.WithError(err).Error("Failed to accept activity client")
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "closing")

	ch, unsub := s.poller.Subscribe()
	defer unsub()

	ctx := c.CloseRead(r.Context())

	st, err := s.poller.Snapshot(ctx)
	if err != nil {
		c.Close(websocket.StatusTryAgainLater, "poller unavailable")
		return
	}
	if err := wsjson.Write(ctx, c, traffic.Notification{Kind: traffic.KindDataActivity, Activity: st.Activity}); err != nil {
		return
	}

	log.WithField("remote", r.RemoteAddr).Debug("Activity client connected")
	defer log.WithField("remote", r.RemoteAddr).Debug("Activity client disconnected")

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, c, n); err != nil {
				return
			}
		}
	}
}
