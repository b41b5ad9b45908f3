package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"allat.local/gee"
	"allat.local/internal/app/summary"
	"allat.local/internal/app/summary/session"
	tracex "allat.local/internal/platform/trace"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// StateResponse is the wire form of summary.State. error and response are
// null when unset.
type StateResponse struct {
	Phase    string   `json:"phase"`
	Seq      uint64   `json:"seq"`
	Error    *string  `json:"error"`
	Loading  bool     `json:"is_loading"`
	Response []string `json:"response"`
	VideoID  string   `json:"video_id,omitempty"`
	Kind     string   `json:"kind,omitempty"`
}

func NewStateResponse(s summary.State) StateResponse {
	resp := StateResponse{
		Phase:    string(s.Phase),
		Seq:      s.Seq,
		Loading:  s.Loading,
		Response: s.Response,
		VideoID:  s.VideoID.String(),
		Kind:     string(s.Kind),
	}
	if s.Error != "" {
		msg := s.Error
		resp.Error = &msg
	}
	return resp
}

type CreateSessionResponse struct {
	SessionID string        `json:"session_id"`
	State     StateResponse `json:"state"`
}

type SubmitRequest struct {
	URL string `json:"url"`
}

type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	VideoID string `json:"video_id,omitempty"`
}

func NewCreateSessionHandler(store *session.Store) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		sess, err := store.Create()
		if err != nil {
			if errors.Is(err, session.ErrTooManySessions) {
				ctx.SetHeader("Retry-After", "60")
				ctx.AbortWithError(http.StatusServiceUnavailable, err.Error())
				return
			}
			slog.ErrorContext(ctx.Context(), "create session failed", "err", err)
			ctx.AbortWithError(http.StatusInternalServerError, "create session failed")
			return
		}
		ctx.SetHeader("Location", "/api/v1/sessions/"+sess.ID)
		ctx.JSON(http.StatusCreated, CreateSessionResponse{
			SessionID: sess.ID,
			State:     NewStateResponse(sess.Controller.Snapshot()),
		})
	}
}

func NewGetSessionHandler(store *session.Store) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		sess, ok := lookup(ctx, store)
		if !ok {
			return
		}
		ctx.SetHeader("Cache-Control", "no-store")
		ctx.JSON(http.StatusOK, NewStateResponse(sess.Controller.Snapshot()))
	}
}

func NewDeleteSessionHandler(store *session.Store) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		if err := store.Delete(ctx.Param("id")); err != nil {
			ctx.AbortWithError(http.StatusNotFound, err.Error())
			return
		}
		ctx.Status(http.StatusNoContent)
	}
}

// NewSubmitHandler validates synchronously and lets the fetch finish in the
// background; clients poll GET /sessions/:id for the outcome.
func NewSubmitHandler(store *session.Store) gee.HandlerFunc {
	return func(ctx *gee.Context) {
		sess, ok := lookup(ctx, store)
		if !ok {
			return
		}
		var req SubmitRequest
		if err := ctx.BindJSON(&req); err != nil {
			return
		}
		state := sess.Controller.Start(req.URL)

		attrs := []attribute.KeyValue{
			attribute.String(tracex.SessionID, sess.ID),
			attribute.Int64(tracex.Seq, int64(state.Seq)),
		}
		if state.VideoID != "" {
			attrs = append(attrs, attribute.String(tracex.VideoID, state.VideoID.String()))
		}
		oteltrace.SpanFromContext(ctx.Context()).SetAttributes(attrs...)

		ctx.JSON(http.StatusAccepted, NewStateResponse(state))
	}
}

func NewValidateHandler() gee.HandlerFunc {
	return func(ctx *gee.Context) {
		id, ok := summary.ExtractVideoID(ctx.Query("url"))
		ctx.JSON(http.StatusOK, ValidateResponse{Valid: ok, VideoID: id.String()})
	}
}

func lookup(ctx *gee.Context, store *session.Store) (*session.Session, bool) {
	sess, err := store.Get(ctx.Param("id"))
	if err != nil {
		ctx.AbortWithError(http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}
