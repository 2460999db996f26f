package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	service "github.com/okian/apex/internal/app"
	"github.com/okian/apex/internal/domain/names"
	"github.com/okian/apex/pkg/logger"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var checkInPage = template.Must(template.ParseFS(templatesFS, "templates/checkin.html.tmpl"))

// Page tones.
const (
	toneOK      = "ok"
	toneError   = "error"
	toneConfirm = "confirm"
	toneCreate  = "create"
)

// CheckInDependencies defines the board operations behind the check-in pages.
type CheckInDependencies interface {
	Resolve(name string) (string, bool)
	RecordAction(ctx context.Context, name, kind string, count int) (service.Receipt, error)
}

// CheckInHandler serves the check-in confirmation and execution pages.
type CheckInHandler struct {
	deps   CheckInDependencies
	action string
	logger logger.Logger
}

// NewCheckInHandler creates a handler recording action on check-in.
func NewCheckInHandler(deps CheckInDependencies, action string, l logger.Logger) *CheckInHandler {
	if l == nil {
		l = logger.Nop()
	}
	return &CheckInHandler{deps: deps, action: action, logger: l}
}

type pageData struct {
	Title   string
	Message string
	Tone    string
	Name    string
	Total   int
}

// HandleConfirm handles GET /conferma_checkin?nome=. It asks for
// confirmation, or offers to join when the name is unknown.
func (h *CheckInHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw := r.URL.Query().Get("nome")
	if strings.TrimSpace(raw) == "" {
		h.renderError(w, r, ErrMissingName, "")
		return
	}
	if name, ok := h.deps.Resolve(raw); ok {
		h.render(w, http.StatusOK, pageData{
			Title:   "Conferma check-in",
			Message: fmt.Sprintf("Confermi il check-in di oggi per %s?", name),
			Tone:    toneConfirm,
			Name:    name,
		})
		return
	}
	h.renderCreate(w, raw)
}

// HandleExecute handles GET /esegui_checkin?nome=. The collaborator is
// created when absent.
func (h *CheckInHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	h.checkIn(w, r, r.URL.Query().Get("nome"))
}

// HandleSubmit handles POST /submit_checkin with form field nome. Unknown
// names get an offer to join unless crea=1 is set.
func (h *CheckInHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, fmt.Errorf("%w: %w", ErrBadRequest, err), "")
		return
	}
	raw := r.PostForm.Get("nome")
	if strings.TrimSpace(raw) == "" {
		h.renderError(w, r, ErrMissingName, "")
		return
	}
	if _, ok := h.deps.Resolve(raw); !ok && r.PostForm.Get("crea") != "1" {
		h.renderCreate(w, raw)
		return
	}
	h.checkIn(w, r, raw)
}

func (h *CheckInHandler) checkIn(w http.ResponseWriter, r *http.Request, raw string) {
	if strings.TrimSpace(raw) == "" {
		h.renderError(w, r, ErrMissingName, "")
		return
	}
	receipt, err := h.deps.RecordAction(r.Context(), raw, h.action, 1)
	if err != nil {
		h.renderError(w, r, err, names.Standardize(raw))
		return
	}

	msg := fmt.Sprintf("Check-in registrato per %s: +%d punti.", receipt.Name, receipt.Points)
	if receipt.Created {
		msg = fmt.Sprintf("Benvenuto %s! Sei entrato in classifica con il check-in di oggi: +%d punti.", receipt.Name, receipt.Points)
	}
	h.render(w, http.StatusOK, pageData{
		Title:   "Check-in completato",
		Message: msg,
		Tone:    toneOK,
		Name:    receipt.Name,
		Total:   receipt.Total,
	})
}

func (h *CheckInHandler) renderCreate(w http.ResponseWriter, raw string) {
	name := names.Standardize(raw)
	h.render(w, http.StatusOK, pageData{
		Title:   "Nome non trovato",
		Message: fmt.Sprintf("%s non è ancora in classifica. Vuoi aggiungerti?", name),
		Tone:    toneCreate,
		Name:    name,
	})
}

func (h *CheckInHandler) renderError(w http.ResponseWriter, r *http.Request, err error, name string) {
	status, code := statusFor(err)
	var msg string
	switch {
	case errors.Is(err, service.ErrDuplicateCheckIn):
		msg = fmt.Sprintf("%s ha già fatto il check-in oggi. Ci vediamo domani!", name)
	case errors.Is(err, ErrMissingName), errors.Is(err, service.ErrInvalidName):
		msg = "Inserisci il tuo nome e cognome."
	case status >= http.StatusInternalServerError:
		msg = "Si è verificato un errore, riprova più tardi."
		h.logger.Error(r.Context(), "check-in failed", logger.String("name", name), logger.Error(err))
	default:
		msg = err.Error()
	}
	h.logger.Info(r.Context(), "check-in rejected",
		logger.String("name", name),
		logger.String("code", code),
	)
	h.render(w, status, pageData{Title: "Check-in non riuscito", Message: msg, Tone: toneError, Name: name})
}

func (h *CheckInHandler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := checkInPage.ExecuteTemplate(w, "checkin.html.tmpl", data); err != nil {
		h.logger.Error(context.Background(), "render check-in page", logger.Error(err))
	}
}
