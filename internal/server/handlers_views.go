package server

import (
	"errors"
	"net/http"
	"strings"

	"event-match/internal/qr"
	"event-match/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (s *Server) eventQRCode(event Event) (string, error) {
	return qr.DataURL(qr.Payload{
		EventID:   event.ID,
		EventCode: event.Code,
		Title:     event.Title,
	}, s.cfg.QRSize)
}

func (s *Server) handleEventQRCode(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		writeError(c, http.StatusBadRequest, "event code is required")
		return
	}
	event, err := s.lookupEvent(code)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	dataURL, err := s.eventQRCode(event)
	if err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("qr encode failed")
		writeError(c, http.StatusInternalServerError, "failed to generate QR code")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"eventCode":  event.Code,
		"eventTitle": event.Title,
		"qrCode":     dataURL,
	})
}

func (s *Server) handleShareView(c *gin.Context) {
	event, err := s.lookupEvent(c.Param("code"))
	if err != nil {
		log.Info().Str("event_code", c.Param("code")).Msg("share view missing event")
		c.Status(http.StatusNotFound)
		return
	}
	dataURL, err := s.eventQRCode(event)
	if err != nil {
		log.Error().Err(err).Str("event_code", event.Code).Msg("qr encode failed")
		c.Status(http.StatusInternalServerError)
		return
	}
	templ.Handler(web.SharePage(web.ShareView{
		EventCode:        event.Code,
		Title:            event.Title,
		HostName:         event.HostName,
		Phase:            event.Phase,
		ParticipantCount: len(event.Participants),
		QRDataURL:        dataURL,
		JoinURL:          web.JoinURL(s.cfg.PublicBaseURL, event.Code),
	})).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleActivity(c *gin.Context) {
	event, err := s.lookupEvent(c.Param("code"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	page := readPage(c, 50, 200)
	entries, total, err := s.listActivity(event, page)
	if err != nil {
		if errors.Is(err, errDatabaseUnavailable) {
			writeDomainError(c, err)
			return
		}
		log.Error().Err(err).Str("event_code", event.Code).Msg("list activity failed")
		writeError(c, http.StatusInternalServerError, "failed to load activity")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activity":   entries,
		"pagination": page.view(total),
	})
}
