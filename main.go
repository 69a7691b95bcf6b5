package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type App struct {
	retriever Retriever
	mapper    Mapper
}

func NewApp(retriever Retriever, mapper Mapper) App {
	return App{retriever: retriever, mapper: mapper}
}

// FetchShow retrieves, parses and maps the feed at feedURL. Every failure is
// a *FetchOrParseError.
func (a App) FetchShow(ctx context.Context, feedURL string) (*Show, error) {
	start := time.Now()
	defer func() { feedLoadDuration.Observe(time.Since(start).Seconds()) }()

	fail := func(op string, err error) (*Show, error) {
		feedLoads.WithLabelValues(op).Inc()
		log.WithFields(log.Fields{
			"url": feedURL,
			"op":  op,
		}).WithError(err).Warn("feed load failed")
		return nil, &FetchOrParseError{URL: feedURL, Op: op, Err: err}
	}

	text, err := a.retriever.FetchText(ctx, feedURL)
	if err != nil {
		return fail("fetch", err)
	}

	channel, err := ParseFeed(strings.NewReader(text))
	if err != nil {
		return fail("parse", err)
	}

	show := a.mapper.Map(channel)
	feedLoads.WithLabelValues("ok").Inc()
	feedEpisodes.Observe(float64(len(show.Episodes)))
	log.WithFields(log.Fields{
		"url":      feedURL,
		"title":    show.Title,
		"episodes": len(show.Episodes),
	}).Debug("feed loaded")

	return &show, nil
}

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

const noURLMessage = "Enter a podcast RSS feed URL."

type page struct {
	*Viewer
	Locale
}

func (a App) Root(w http.ResponseWriter, r *http.Request) {
	v := a.NewViewer()
	status := http.StatusOK

	feedURL := strings.TrimSpace(r.FormValue("url"))
	switch {
	case feedURL != "":
		v.Load(r.Context(), feedURL)
		if v.Error != "" {
			status = http.StatusBadGateway
		}
	case r.Method == http.MethodPost:
		v.Error = noURLMessage
		status = http.StatusUnprocessableEntity
	}

	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, page{Viewer: v, Locale: LocaleFor(r.Header.Get("Accept-Language"))})
	if err != nil {
		log.WithError(err).Error("rendering index")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("writing json response")
	}
}

func (a App) ShowAPI(w http.ResponseWriter, r *http.Request) {
	feedURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if feedURL == "" {
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: "no url"})
		return
	}

	show, err := a.FetchShow(r.Context(), feedURL)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, apiError{Error: FetchErrorMessage})
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (a App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.StandardLogger(),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/", a.Root)
	r.Post("/", a.Root)
	r.Get("/api/show", a.ShowAPI)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func main() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
