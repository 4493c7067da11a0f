package web

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/alvasen/sophamtning-ale/internal/agent"
	"github.com/alvasen/sophamtning-ale/internal/edp"
	"github.com/alvasen/sophamtning-ale/internal/i18n"
	"github.com/alvasen/sophamtning-ale/internal/notify"
	"github.com/alvasen/sophamtning-ale/internal/schedule"
	"github.com/alvasen/sophamtning-ale/internal/search"
	"github.com/alvasen/sophamtning-ale/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

type searchRequest struct {
	SearchText string `json:"searchText"`
	SessionID  string `json:"sessionId"`
}

type searchResponse struct {
	Succeeded  bool         `json:"succeeded"`
	Superseded bool         `json:"superseded,omitempty"`
	Buildings  []addressDTO `json:"buildings"`
}

type addressDTO struct {
	Address     string `json:"address"`
	DisplayName string `json:"displayName"`
}

// itemDTO is an Item plus its localized presentation strings.
type itemDTO struct {
	schedule.Item
	DaysRemainingText string `json:"daysRemainingText"`
	DateText          string `json:"dateText"`
	ShortDateText     string `json:"shortDateText"`
}

type groupDTO struct {
	Date              time.Time `json:"date"`
	DateString        string    `json:"dateString"`
	DateText          string    `json:"dateText"`
	DaysRemaining     int       `json:"daysRemaining"`
	DaysRemainingText string    `json:"daysRemainingText"`
	Items             []itemDTO `json:"items"`
}

type viewResponse struct {
	Address   string     `json:"address"`
	Items     []itemDTO  `json:"items"`
	Groups    []groupDTO `json:"groups"`
	Stale     bool       `json:"stale"`
	Advisory  string     `json:"advisory,omitempty"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

type addressRequest struct {
	Address string `json:"address"`
}

type permissionRequest struct {
	State string `json:"state"`
}

type heartbeatRequest struct {
	ClientID string `json:"clientId"`
}

type heartbeatResponse struct {
	ClientID      string `json:"clientId"`
	ActiveClients int    `json:"activeClients"`
}

// goLocalizer pairs a localizer with a shorthand for parameterless
// messages, which is what the handlers mostly need.
type goLocalizer struct {
	*goi18n.Localizer
}

func (l *goLocalizer) t(id string) string { return i18n.T(l.Localizer, id, nil) }

func localizer(r *http.Request) *goLocalizer {
	return &goLocalizer{i18n.Localizer(r.Header.Get("Accept-Language"))}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	loc := localizer(r)

	var req searchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrUnexpected)})
		return
	}

	buildings, err := s.coordinator(req.SessionID).Query(r.Context(), req.SearchText)
	if errors.Is(err, search.ErrSuperseded) {
		render.JSON(w, r, searchResponse{Superseded: true, Buildings: []addressDTO{}})
		return
	}
	var statusErr *edp.StatusError
	if errors.As(err, &statusErr) {
		// Relay the upstream status untouched.
		render.Status(r, statusErr.StatusCode)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrSearchFailed)})
		return
	}
	if err != nil {
		slog.Warn("search failed", "error", err)
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrSearchFailed)})
		return
	}

	resp := searchResponse{Succeeded: true, Buildings: make([]addressDTO, 0, len(buildings))}
	for _, b := range buildings {
		resp.Buildings = append(resp.Buildings, addressDTO{
			Address:     b,
			DisplayName: search.DisplayName(b),
		})
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleScheduleRaw(w http.ResponseWriter, r *http.Request) {
	loc := localizer(r)
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrAddressRequired)})
		return
	}

	data, err := s.schedule.Raw(r.Context(), address)
	if err != nil {
		s.renderScheduleError(w, r, loc, err)
		return
	}
	render.JSON(w, r, data)
}

func (s *Server) handleScheduleView(w http.ResponseWriter, r *http.Request) {
	loc := localizer(r)
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrAddressRequired)})
		return
	}

	view, err := s.schedule.Fetch(r.Context(), address)
	if err != nil {
		s.renderScheduleError(w, r, loc, err)
		return
	}
	render.JSON(w, r, toViewResponse(view, loc))
}

func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	loc := localizer(r)
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrAddressRequired)})
		return
	}

	view, err := s.schedule.Fetch(r.Context(), address)
	if err != nil {
		s.renderScheduleError(w, r, loc, err)
		return
	}

	data, err := ExportICS(view)
	if err != nil {
		slog.Error("ics export failed", "address", address, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrUnexpected)})
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sophamtning.ics"`)
	w.Write(data)
}

func (s *Server) handleScheduleCSV(w http.ResponseWriter, r *http.Request) {
	loc := localizer(r)
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrAddressRequired)})
		return
	}

	view, err := s.schedule.Fetch(r.Context(), address)
	if err != nil {
		s.renderScheduleError(w, r, loc, err)
		return
	}

	data, err := ExportCSV(view)
	if err != nil {
		slog.Error("csv export failed", "address", address, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrUnexpected)})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sophamtning.csv"`)
	w.Write(data)
}

func (s *Server) renderScheduleError(w http.ResponseWriter, r *http.Request, loc *goLocalizer, err error) {
	var statusErr *edp.StatusError
	if errors.As(err, &statusErr) {
		render.Status(r, statusErr.StatusCode)
		render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrScheduleFetch)})
		return
	}
	slog.Warn("schedule fetch failed", "error", err)
	render.Status(r, http.StatusBadGateway)
	render.JSON(w, r, errorResponse{Error: loc.t(i18n.MsgErrScheduleFetch)})
}

func (s *Server) handleAddressGet(w http.ResponseWriter, r *http.Request) {
	address, err := s.kv.Get(r.Context(), schedule.KeyAddress)
	if errors.Is(err, store.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: localizer(r).t(i18n.MsgErrAddressRequired)})
		return
	}
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	render.JSON(w, r, addressRequest{Address: address})
}

func (s *Server) handleAddressPut(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || strings.TrimSpace(req.Address) == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: localizer(r).t(i18n.MsgErrAddressRequired)})
		return
	}
	if err := s.kv.Set(r.Context(), schedule.KeyAddress, req.Address, 0); err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

func (s *Server) handleAddressDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.kv.Delete(r.Context(), schedule.KeyAddress); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.renderStoreError(w, r, err)
		return
	}
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

func (s *Server) handleNotifyArm(w http.ResponseWriter, r *http.Request) {
	// The timer must outlive this request; it stops with the process.
	started, err := s.agent.Arm(s.baseContext())
	if errors.Is(err, agent.ErrNotGranted) {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, errorResponse{Error: notify.PermissionDenied})
		return
	}
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"armed": true, "started": started})
}

func (s *Server) handlePermissionGet(w http.ResponseWriter, r *http.Request) {
	state, err := s.agent.Permissions().Get(r.Context())
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	render.JSON(w, r, permissionRequest{State: state})
}

func (s *Server) handlePermissionPut(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: localizer(r).t(i18n.MsgErrUnexpected)})
		return
	}
	err := s.agent.Permissions().Set(r.Context(), req.State)
	if errors.Is(err, notify.ErrInvalidPermission) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.renderStoreError(w, r, err)
		return
	}
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: localizer(r).t(i18n.MsgErrUnexpected)})
		return
	}
	if req.ClientID == "" {
		req.ClientID = uuid.NewString()
	}

	now := time.Now()
	reg := s.agent.Registry()
	reg.Heartbeat(req.ClientID, now)
	render.JSON(w, r, heartbeatResponse{
		ClientID:      req.ClientID,
		ActiveClients: reg.ActiveCount(now),
	})
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}
	data, err := fs.ReadFile(s.static, path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	switch {
	case strings.HasSuffix(path, ".json"):
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	}
	w.Write(data)
}

func (s *Server) renderStoreError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("store operation failed", "error", err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, errorResponse{Error: localizer(r).t(i18n.MsgErrUnexpected)})
}

func toViewResponse(v *schedule.View, loc *goLocalizer) viewResponse {
	resp := viewResponse{
		Address:   v.Address,
		Items:     make([]itemDTO, 0, len(v.Items)),
		Groups:    make([]groupDTO, 0, len(v.Groups)),
		Stale:     v.Stale,
		FetchedAt: v.FetchedAt,
	}
	if v.Stale {
		resp.Advisory = loc.t(i18n.MsgStaleAdvisory)
	}
	for _, item := range v.Items {
		resp.Items = append(resp.Items, toItemDTO(item, loc))
	}
	for _, g := range v.Groups {
		dto := groupDTO{
			Date:              g.Date,
			DateString:        g.DateString,
			DateText:          schedule.FormatDate(g.Date),
			DaysRemaining:     g.DaysRemaining,
			DaysRemainingText: schedule.DaysRemainingTextIn(loc.Localizer, g.DaysRemaining),
			Items:             make([]itemDTO, 0, len(g.Items)),
		}
		for _, item := range g.Items {
			dto.Items = append(dto.Items, toItemDTO(item, loc))
		}
		resp.Groups = append(resp.Groups, dto)
	}
	return resp
}

func toItemDTO(item schedule.Item, loc *goLocalizer) itemDTO {
	return itemDTO{
		Item:              item,
		DaysRemainingText: schedule.DaysRemainingTextIn(loc.Localizer, item.DaysRemaining),
		DateText:          schedule.FormatDate(item.NextPickup),
		ShortDateText:     schedule.FormatShortDate(item.NextPickup),
	}
}
