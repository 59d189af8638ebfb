package web

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-narrator/pkg/events"
	"github.com/teslashibe/go-narrator/pkg/history"
	"github.com/teslashibe/go-narrator/pkg/hub"
)

// EntityView is the dashboard's summary of a tracked entity.
type EntityView struct {
	ID           history.Identity `json:"id"`
	Class        string           `json:"class"`
	Observations int              `json:"observations"`
	FirstSeen    string           `json:"first_seen"`
	LastSeen     string           `json:"last_seen"`
	LastSeq      uint64           `json:"last_seq"`
	Area         float64          `json:"area"`
	Synthetic    bool             `json:"synthetic"`
}

// handleStatus returns the assistant status
func (s *Server) handleStatus(c *fiber.Ctx) error {
	status := s.control.Status()
	return c.JSON(fiber.Map{
		"assistant": status,
		"clients":   s.events.ClientCount(),
	})
}

// NarrateRequest is the optional body of POST /api/narrate.
type NarrateRequest struct {
	Source string `json:"source"`
}

// handleNarrate requests a narration; it returns before the narration is
// spoken.
func (s *Server) handleNarrate(c *fiber.Ctx) error {
	var req NarrateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = "http"
	}

	t := s.control.Trigger(source)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"trigger_id": t.ID,
		"source":     t.Source,
	})
}

// handleHazards returns the most recent hazards, newest first
func (s *Server) handleHazards(c *fiber.Ctx) error {
	return c.JSON(s.control.Status().RecentHazards)
}

// handleNarrations returns recent narration events, newest first
func (s *Server) handleNarrations(c *fiber.Ctx) error {
	return c.JSON(s.recent.List(events.KindNarration))
}

func (s *Server) handleEntities(c *fiber.Ctx) error {
	snap := s.control.Entities()
	ids := snap.IDs()

	views := make([]EntityView, 0, len(ids))
	for _, id := range ids {
		e := snap[id]
		v := EntityView{
			ID:           id,
			Class:        e.Class,
			Observations: len(e.Observations),
			FirstSeen:    e.FirstSeen.Format("15:04:05.000"),
			LastSeen:     e.LastSeen.Format("15:04:05.000"),
			LastSeq:      e.LastSeq,
			Synthetic:    id.Synthetic(),
		}
		if last, ok := e.Latest(); ok {
			v.Area = last.Area
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].LastSeq > views[j].LastSeq })
	return c.JSON(views)
}

func (s *Server) handleJournalHazards(c *fiber.Ctx) error {
	if s.journal == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "journal disabled"})
	}
	records, err := s.journal.RecentHazards(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		s.logger.Warn("journal query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(records)
}

func (s *Server) handleJournalNarrations(c *fiber.Ctx) error {
	if s.journal == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "journal disabled"})
	}
	records, err := s.journal.RecentNarrations(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		s.logger.Warn("journal query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(records)
}

// handleEventsWS streams events. ?kinds=hazard,narration limits the feed.
func (s *Server) handleEventsWS(conn *websocket.Conn) {
	var topics []string
	for _, k := range strings.Split(conn.Query("kinds"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			topics = append(topics, k)
		}
	}
	hub.NewClient(s.events, conn, topics...).Run()
}
