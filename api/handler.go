package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/authbridge/session"
	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"
)

type cookieJarKey struct{}

// cookieJar collects the cookie change a resolver asks for. It is applied
// before the response body is written.
type cookieJar struct {
	token   string
	cleared bool
}

func (j *cookieJar) set(token string) {
	if j != nil {
		j.token, j.cleared = token, false
	}
}

func (j *cookieJar) clear() {
	if j != nil {
		j.token, j.cleared = "", true
	}
}

func cookiesFromContext(ctx context.Context) *cookieJar {
	jar, _ := ctx.Value(cookieJarKey{}).(*cookieJar)
	return jar
}

type params struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler serves GraphQL over GET and POST.
type Handler struct {
	schema  *graphql.Schema
	cookies session.Cookies
	logger  *zap.Logger
}

// NewHandler parses Schema against engine. Session cookies are written with
// cookies.
func NewHandler(engine Engine, cookies session.Cookies, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, err := graphql.ParseSchema(Schema, &rootResolver{engine: engine})
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema, cookies: cookies, logger: logger.Named("graphql")}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p params
	switch r.Method {
	case http.MethodGet:
		p.Query = r.URL.Query().Get("query")
		p.OperationName = r.URL.Query().Get("operationName")
		if vars := r.URL.Query().Get("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &p.Variables); err != nil {
				http.Error(w, "invalid variables", http.StatusBadRequest)
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	jar := &cookieJar{}
	ctx := context.WithValue(r.Context(), cookieJarKey{}, jar)
	response := h.schema.Exec(ctx, p.Query, p.OperationName, p.Variables)
	for _, err := range response.Errors {
		h.logger.Debug("graphql error", zap.String("operation", p.OperationName), zap.Error(err))
	}

	body, err := json.Marshal(response)
	if err != nil {
		h.logger.Error("encode graphql response", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	switch {
	case jar.token != "":
		h.cookies.Set(w, jar.token)
	case jar.cleared:
		h.cookies.Clear(w)
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
