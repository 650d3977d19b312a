package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/yuzuhara/fieldwise"
	"github.com/yuzuhara/fieldwise/internal/domain"
	"github.com/yuzuhara/fieldwise/internal/present/rest/presenter"
	"github.com/yuzuhara/fieldwise/internal/service"
	"github.com/yuzuhara/fieldwise/internal/usecase"
)

type Handler struct {
	config   domain.Config
	fields   *usecase.FieldUsecase
	history  *usecase.HistoryUsecase
	rollback *usecase.RollbackUsecase
	auth     *service.AuthService
	table    *service.TableService
	events   *service.EventService
}

func NewHandler(
	config domain.Config,
	fields *usecase.FieldUsecase,
	history *usecase.HistoryUsecase,
	rollback *usecase.RollbackUsecase,
	auth *service.AuthService,
	table *service.TableService,
	events *service.EventService,
) *Handler {
	return &Handler{
		config:   config,
		fields:   fields,
		history:  history,
		rollback: rollback,
		auth:     auth,
		table:    table,
		events:   events,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", h.handleHealth)
	e.POST("/api/v1/auth", h.handleAuth)
	e.GET("/api/v1/tables", h.handleResolveTable)
	e.GET("/api/v1/fields", h.handleListFields)
	e.GET("/api/v1/fields/:id", h.handleGetField)
	e.POST("/api/v1/fields", h.handleCreateField)
	e.PUT("/api/v1/fields/:id", h.handleUpdateField)
	e.DELETE("/api/v1/fields/:id", h.handleDeleteField)
	e.GET("/api/v1/history", h.handleListHistory)
	e.GET("/api/v1/history/:id", h.handleGetHistory)
	e.POST("/api/v1/history", h.handleAppendHistory)
	e.POST("/api/v1/history/:id/rollback", h.handleRollback)
	e.GET("/realtime", h.handleRealtime)
}

// handleError maps domain errors onto status codes. Anything unknown is
// a 500.
func handleError(c echo.Context, err error) error {
	var verr domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return presenter.ValidationFailed(c, verr.Violations)
	case errors.Is(err, domain.ErrNotFound):
		return presenter.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrNotRollbackable):
		return presenter.Conflict(c, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		return presenter.UpstreamFailure(c, err)
	default:
		return presenter.InternalError(c, err)
	}
}

// requestToken returns the vendor token the auth middleware lifted from
// the Authorization header, or "".
func requestToken(c echo.Context) string {
	token, _ := c.Request().Context().Value(domain.VendorTokenCtxKey).(string)
	return token
}

// requesterID returns the user id from the X-User-Id header, or "".
func requesterID(c echo.Context) string {
	id, _ := c.Request().Context().Value(domain.RequesterIdCtxKey).(string)
	return id
}

func (h *Handler) credentials(c echo.Context, appToken, tableID string) (usecase.VendorCredentials, bool) {
	token := requestToken(c)
	if token == "" || appToken == "" || tableID == "" {
		return usecase.VendorCredentials{}, false
	}
	return usecase.VendorCredentials{
		Token:    token,
		AppToken: appToken,
		TableID:  tableID,
	}, true
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

type authRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

func (h *Handler) handleAuth(c echo.Context) error {
	ctx := c.Request().Context()

	var req authRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.AppID == "" || req.AppSecret == "" {
		return presenter.BadRequestMessage(c, "app_id and app_secret are required")
	}

	result, err := h.auth.Exchange(ctx, req.AppID, req.AppSecret)
	if err != nil {
		return handleError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"tenant_access_token": result.Token,
		"expire":              result.Expire,
	})
}

func (h *Handler) handleResolveTable(c echo.Context) error {
	ctx := c.Request().Context()

	rawURL := c.QueryParam("url")
	if rawURL == "" {
		return presenter.BadRequestMessage(c, "url parameter is required")
	}
	token := requestToken(c)
	if token == "" {
		return presenter.BadRequestMessage(c, "bearer token is required")
	}

	info, err := h.table.Resolve(ctx, token, rawURL)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			return presenter.UpstreamFailure(c, err)
		}
		return presenter.BadRequest(c, err)
	}

	return presenter.OK(c, info)
}

func (h *Handler) handleListFields(c echo.Context) error {
	ctx := c.Request().Context()

	creds, ok := h.credentials(c, c.QueryParam("app_token"), c.QueryParam("table_id"))
	if !ok {
		return presenter.BadRequestMessage(c, "bearer token, app_token and table_id are required")
	}

	fields, err := h.fields.List(ctx, creds)
	if err != nil {
		return handleError(c, err)
	}

	return presenter.OK(c, fields)
}

func (h *Handler) handleGetField(c echo.Context) error {
	ctx := c.Request().Context()

	creds, ok := h.credentials(c, c.QueryParam("app_token"), c.QueryParam("table_id"))
	if !ok {
		return presenter.BadRequestMessage(c, "bearer token, app_token and table_id are required")
	}

	field, err := h.fields.Get(ctx, creds, c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}

	return presenter.OK(c, field)
}

type fieldWriteRequest struct {
	AppToken string                `json:"app_token"`
	TableID  string                `json:"table_id"`
	UserID   string                `json:"user_id"`
	Field    fieldwise.FieldConfig `json:"field"`
}

func (h *Handler) writeInput(c echo.Context) (usecase.WriteInput, bool) {
	var req fieldWriteRequest
	if err := c.Bind(&req); err != nil {
		return usecase.WriteInput{}, false
	}

	creds, ok := h.credentials(c, req.AppToken, req.TableID)
	if !ok {
		return usecase.WriteInput{}, false
	}

	userID := req.UserID
	if userID == "" {
		userID = requesterID(c)
	}

	return usecase.WriteInput{
		Credentials: creds,
		UserID:      userID,
		FieldID:     c.Param("id"),
		Config:      req.Field,
	}, true
}

func (h *Handler) handleCreateField(c echo.Context) error {
	ctx := c.Request().Context()

	input, ok := h.writeInput(c)
	if !ok {
		return presenter.BadRequestMessage(c, "bearer token, app_token and table_id are required")
	}

	result, err := h.fields.Create(ctx, input)
	if err != nil {
		return handleError(c, err)
	}

	h.publishEntry(c, result.Entry)
	return presenter.OK(c, result)
}

func (h *Handler) handleUpdateField(c echo.Context) error {
	ctx := c.Request().Context()

	input, ok := h.writeInput(c)
	if !ok {
		return presenter.BadRequestMessage(c, "bearer token, app_token and table_id are required")
	}
	if input.FieldID == "" {
		return presenter.BadRequestMessage(c, "field id is required")
	}

	result, err := h.fields.Update(ctx, input)
	if err != nil {
		return handleError(c, err)
	}

	h.publishEntry(c, result.Entry)
	return presenter.OK(c, result)
}

func (h *Handler) handleDeleteField(c echo.Context) error {
	ctx := c.Request().Context()

	creds, ok := h.credentials(c, c.QueryParam("app_token"), c.QueryParam("table_id"))
	if !ok {
		return presenter.BadRequestMessage(c, "bearer token, app_token and table_id are required")
	}

	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = requesterID(c)
	}

	result, err := h.fields.Delete(ctx, usecase.WriteInput{
		Credentials: creds,
		UserID:      userID,
		FieldID:     c.Param("id"),
	})
	if err != nil {
		return handleError(c, err)
	}

	h.publishEntry(c, result.Entry)
	return presenter.OK(c, result)
}

func (h *Handler) handleListHistory(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = requesterID(c)
	}
	if userID == "" {
		return presenter.BadRequestMessage(c, "user_id parameter is required")
	}

	entries, err := h.history.List(ctx, userID)
	if err != nil {
		return handleError(c, err)
	}

	return presenter.OK(c, entries)
}

func (h *Handler) handleGetHistory(c echo.Context) error {
	ctx := c.Request().Context()

	entry, err := h.history.Find(ctx, c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}

	return presenter.OK(c, entry)
}

func (h *Handler) handleAppendHistory(c echo.Context) error {
	ctx := c.Request().Context()

	var entry fieldwise.HistoryEntry
	if err := c.Bind(&entry); err != nil {
		return presenter.BadRequest(c, err)
	}
	if entry.UserID == "" {
		entry.UserID = requesterID(c)
	}
	if entry.UserID == "" {
		return presenter.BadRequestMessage(c, "userId is required")
	}
	if entry.Operation == "" {
		return presenter.BadRequestMessage(c, "operation is required")
	}

	appended, err := h.history.Append(ctx, entry)
	if err != nil {
		return handleError(c, err)
	}

	h.publishEntry(c, &appended)
	return presenter.OK(c, appended)
}

type rollbackRequest struct {
	AppToken string `json:"app_token"`
	TableID  string `json:"table_id"`
}

func (h *Handler) handleRollback(c echo.Context) error {
	ctx := c.Request().Context()

	var req rollbackRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	creds, ok := h.credentials(c, req.AppToken, req.TableID)
	if !ok {
		return presenter.BadRequestMessage(c, "bearer token, app_token and table_id are required")
	}

	entry, err := h.rollback.Rollback(ctx, usecase.RollbackInput{
		Credentials: creds,
		HistoryID:   c.Param("id"),
	})
	if err != nil {
		return handleError(c, err)
	}

	h.publishEntry(c, &entry)
	return presenter.OK(c, entry)
}

func (h *Handler) publishEntry(c echo.Context, entry *fieldwise.HistoryEntry) {
	if entry == nil {
		return
	}
	if err := h.events.Publish(c.Request().Context(), *entry); err != nil {
		slog.ErrorContext(
			c.Request().Context(), "Failed to publish history event",
			slog.String("error", err.Error()),
			slog.String("module", "events"),
		)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ctx := c.Request().Context()

	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = requesterID(c)
	}
	if userID == "" {
		return presenter.BadRequestMessage(c, "user_id parameter is required")
	}

	sub := h.events.Subscribe(ctx, userID)
	if sub == nil {
		return presenter.BadRequestMessage(c, "realtime events are not enabled")
	}
	defer sub.Close()

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	quit := make(chan struct{})

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	events := sub.Channel()

	for {
		select {
		case <-quit:
			return nil
		case msg, ok := <-events:
			if !ok {
				return nil
			}
			err := ws.WriteMessage(websocket.TextMessage, []byte(msg.Payload))
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
