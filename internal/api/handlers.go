package api

import (
	"encoding/json"
	"errors"
	"image"
	"net/http"

	"textscope/internal/app"
	"textscope/internal/clipboard"
	"textscope/internal/logger"
	"textscope/internal/orientation"
	"textscope/internal/state"
)

type Handlers struct {
	app *app.App
}

type StateResponse struct {
	Screen string `json:"screen"`
	Text   string `json:"text"`
	// CanCopy mirrors the copy button, shown only with text.
	CanCopy bool `json:"can_copy"`
}

type DetectedResponse struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
	// CanConfirm is false while nothing has been detected.
	CanConfirm bool `json:"can_confirm"`
}

type SessionResponse struct {
	PermissionGranted bool   `json:"permission_granted"`
	Running           bool   `json:"running"`
	Device            string `json:"device"`
	Orientation       string `json:"orientation"`
	RotationAngle     int    `json:"rotation_angle"`
	FramesDelivered   uint64 `json:"frames_delivered"`
	PreviewWidth      int    `json:"preview_width"`
	PreviewHeight     int    `json:"preview_height"`
}

type OrientationRequest struct {
	Orientation string `json:"orientation"`
}

type LayoutRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (h *Handlers) GetState(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, stateResponse(h.app.State()))
}

func (h *Handlers) StartCapture(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.StartCapture()
	if err != nil {
		ErrorResponse(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, stateResponse(st))
}

func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Confirm()
	if err != nil {
		ErrorResponse(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, stateResponse(st))
}

func (h *Handlers) Discard(w http.ResponseWriter, r *http.Request) {
	st, err := h.app.Discard()
	if err != nil {
		ErrorResponse(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, stateResponse(st))
}

func (h *Handlers) Copy(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Copy(); err != nil {
		ErrorResponse(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]string{"status": "copied"})
}

// GetDetected returns what the capture screen shows: the error if one is
// set, otherwise the detected text.
func (h *Handlers) GetDetected(w http.ResponseWriter, r *http.Request) {
	snap, err := h.app.Detected()
	if err != nil {
		ErrorResponse(w, err)
		return
	}
	text, isErr := snap.Visible()
	JSONResponse(w, http.StatusOK, DetectedResponse{Text: text, IsError: isErr, CanConfirm: snap.Text != ""})
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	screen := h.app.Screen()
	if screen == nil {
		ErrorResponse(w, app.ErrNotCapturing)
		return
	}
	st := screen.Session.Status()
	preview := screen.Session.Preview()
	JSONResponse(w, http.StatusOK, SessionResponse{
		PermissionGranted: st.PermissionGranted,
		Running:           st.Running,
		Device:            st.Device,
		Orientation:       st.Orientation.String(),
		RotationAngle:     st.RotationAngle,
		FramesDelivered:   st.FramesDelivered,
		PreviewWidth:      preview.Bounds.Dx(),
		PreviewHeight:     preview.Bounds.Dy(),
	})
}

func (h *Handlers) SetOrientation(w http.ResponseWriter, r *http.Request) {
	var req OrientationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	o, err := orientation.Parse(req.Orientation)
	if err != nil {
		JSONResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.app.SetOrientation(o)
	JSONResponse(w, http.StatusOK, map[string]any{
		"orientation":    o.String(),
		"rotation_angle": orientation.RotationAngle(o),
	})
}

func (h *Handlers) SetLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Width <= 0 || req.Height <= 0 {
		JSONResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	if err := h.app.Layout(image.Rect(0, 0, req.Width, req.Height)); err != nil {
		ErrorResponse(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, map[string]int{"width": req.Width, "height": req.Height})
}

func stateResponse(st state.State) StateResponse {
	return StateResponse{Screen: st.Screen.String(), Text: st.Text, CanCopy: st.Text != ""}
}

// JSONResponse writes a JSON response.
func JSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.DebugLog("[api]: encoding response: %v", err)
	}
}

// ErrorResponse maps app errors onto status codes.
func ErrorResponse(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, state.ErrInvalidTransition),
		errors.Is(err, app.ErrNothingToConfirm),
		errors.Is(err, app.ErrNotCapturing),
		errors.Is(err, clipboard.ErrEmptyText):
		status = http.StatusConflict
	}
	JSONResponse(w, status, map[string]string{"error": err.Error()})
}
