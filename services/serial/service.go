// services/serial/service.go
package serial

import (
	"context"

	"github.com/SupriyaMishraWork/rpi-os-driver/bus"
	"github.com/SupriyaMishraWork/rpi-os-driver/errcode"
	"github.com/SupriyaMishraWork/rpi-os-driver/internal/util"
	"github.com/SupriyaMishraWork/rpi-os-driver/types"
	"github.com/SupriyaMishraWork/rpi-os-driver/x/timex"
)

// -----------------------------------------------------------------------------
// Entry point
// -----------------------------------------------------------------------------

// Run serves one port on the bus until ctx is cancelled. It publishes the
// retained port info/state documents and answers control verbs:
//
//	serial/port/<id>/control/send  {"data": "..."}  -> {"ok":true,"accepted":n}
//	serial/port/<id>/control/recv  {"max": n}       -> {"ok":true,"data":...,"count":n}
//	serial/port/<id>/control/stat                   -> {"ok":true,"info":{...}}
func Run(ctx context.Context, conn *bus.Connection, ctrl *Controller, info types.PortInfo) {
	s := &service{conn: conn, ctrl: ctrl, info: info}
	s.loop(ctx)
}

type service struct {
	conn *bus.Connection
	ctrl *Controller
	info types.PortInfo
}

type sendParams struct {
	Data string `json:"data"`
}

type recvParams struct {
	Max int `json:"max,omitempty"`
}

// -----------------------------------------------------------------------------
// Main loop
// -----------------------------------------------------------------------------

func (s *service) loop(ctx context.Context) {
	ctrlSub := s.conn.Subscribe(bus.Topic{"serial", "port", s.info.Port, "control", "+"})
	defer s.conn.Unsubscribe(ctrlSub)
	cfgSub := s.conn.Subscribe(bus.Topic{"config", "serial"})
	defer s.conn.Unsubscribe(cfgSub)

	s.pubRet(s.portTopic("info"), s.info)
	s.publishState("ready", nil)

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", nil)
			return

		case msg := <-cfgSub.Channel():
			s.handleConfig(msg)

		case msg := <-ctrlSub.Channel():
			// serial/port/<id>/control/<verb>
			if len(msg.Topic) < 5 {
				continue
			}
			verb, _ := msg.Topic[4].(string)
			switch verb {
			case "send":
				s.handleSend(msg)
			case "recv":
				s.handleRecv(msg)
			case "stat":
				s.replyOK(msg, map[string]any{"info": s.info})
			default:
				s.replyErr(msg, errcode.Unsupported)
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Verbs
// -----------------------------------------------------------------------------

func (s *service) handleSend(msg *bus.Message) {
	var p sendParams
	if err := util.DecodeJSON(msg.Payload, &p); err != nil {
		s.replyErr(msg, errcode.InvalidPayload)
		return
	}
	n, err := s.ctrl.Send([]byte(p.Data))
	if err != nil {
		s.publishState("degraded", err)
		s.replyErr(msg, errcode.Of(err))
		return
	}
	s.conn.Publish(s.conn.NewMessage(s.portTopic("tx"),
		map[string]any{"bytes": n, "ts_ms": timex.NowMs()}, false))
	s.replyOK(msg, map[string]any{"accepted": n})
}

func (s *service) handleRecv(msg *bus.Message) {
	var p recvParams
	if msg.Payload != nil {
		if err := util.DecodeJSON(msg.Payload, &p); err != nil {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
	}
	if p.Max <= 0 {
		p.Max = s.ctrl.MaxMessage()
	}
	data, err := s.ctrl.Receive(p.Max)
	if err != nil {
		s.replyErr(msg, errcode.Of(err))
		return
	}
	if len(data) > 0 {
		s.conn.Publish(s.conn.NewMessage(s.portTopic("rx"),
			map[string]any{"bytes": len(data), "ts_ms": timex.NowMs()}, false))
	}
	s.replyOK(msg, map[string]any{"data": string(data), "count": len(data)})
}

// handleConfig applies the framer budgets from a config/serial document. The
// config service publishes the native struct; anything else is decoded JSON.
func (s *service) handleConfig(msg *bus.Message) {
	cfg, ok := msg.Payload.(types.DriverConfig)
	if !ok {
		if err := util.DecodeJSON(msg.Payload, &cfg); err != nil {
			return
		}
	}
	s.ctrl.SetFramer(FramerFromCfg(cfg.Framer).ForBaud(s.info.Baud))
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *service) portTopic(rest ...bus.Token) bus.Topic {
	base := bus.Topic{"serial", "port", s.info.Port}
	return append(base, rest...)
}

func (s *service) pubRet(topic bus.Topic, payload any) {
	s.conn.Publish(s.conn.NewMessage(topic, payload, true))
}

func (s *service) publishState(link string, err error) {
	payload := map[string]any{"link": link, "ts_ms": timex.NowMs()}
	if err != nil {
		payload["error"] = string(errcode.Of(err))
	}
	s.pubRet(s.portTopic("state"), payload)
}

func (s *service) replyOK(req *bus.Message, extra map[string]any) {
	if len(req.ReplyTo) == 0 {
		return
	}
	m := map[string]any{"ok": true}
	for k, v := range extra {
		m[k] = v
	}
	s.conn.Reply(req, m, false)
}

func (s *service) replyErr(req *bus.Message, c errcode.Code) {
	if len(req.ReplyTo) == 0 {
		return
	}
	s.conn.Reply(req, map[string]any{"ok": false, "error": string(c)}, false)
}
