package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/lspkeeper/internal/adapter/ws"
	"github.com/Strob0t/lspkeeper/internal/service"
)

// Handlers holds the dependencies of the control API.
type Handlers struct {
	// BaseCtx bounds lifecycle operations started by requests. They outlive
	// a disconnecting client and are canceled only when BaseCtx is done. Nil
	// means no bound.
	BaseCtx   context.Context
	Extension *service.Extension
	Namespace string
	Hub       *ws.Hub
	Version   string
}

type commandsResponse struct {
	Commands []string `json:"commands"`
}

// Health reports liveness together with the client state.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	info := h.Extension.Supervisor().Info()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"lsp":     string(info.State),
		"version": h.Version,
	})
}

// Status returns the supervisor snapshot.
func (h *Handlers) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.Extension.Supervisor().Info())
}

// Start provisions the server if needed and starts the client.
func (h *Handlers) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	sup := h.Extension.Supervisor()
	if err := sup.Start(ctx); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sup.Info())
}

// Stop shuts the client down.
func (h *Handlers) Stop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	sup := h.Extension.Supervisor()
	if err := sup.Stop(ctx); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sup.Info())
}

// Restart dispatches the registered restart command.
func (h *Handlers) Restart(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, service.RestartCommandID(h.Namespace))
}

// ListCommands returns the registered command ids.
func (h *Handlers) ListCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, commandsResponse{Commands: h.Extension.Commands()})
}

// ExecuteCommand runs the command named in the URL.
func (h *Handlers) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	h.execute(w, r, urlParam(r, "id"))
}

func (h *Handlers) execute(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := h.opContext(r)
	defer cancel()

	if err := h.Extension.Execute(ctx, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Extension.Supervisor().Info())
}

// opContext returns a context for a lifecycle operation: it keeps the
// request's values, ignores its cancellation and ends with BaseCtx.
func (h *Handlers) opContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	if h.BaseCtx == nil {
		return ctx, cancel
	}
	stop := context.AfterFunc(h.BaseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
