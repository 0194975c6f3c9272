package mock

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/weftworks/weft/pkg/endpoint"
	"github.com/weftworks/weft/pkg/schema"
	"github.com/weftworks/weft/pkg/sse"
	"github.com/weftworks/weft/pkg/stream"
)

// fixtureFile is the top-level TOML document.
type fixtureFile struct {
	Endpoints []fixtureEndpoint `toml:"endpoint"`
}

// fixtureEndpoint declares one canned endpoint. The shape field selects
// which of the payload fields apply: body for json, event tables for
// events, items for items, data (base64) for binary.
type fixtureEndpoint struct {
	Method      string         `toml:"method"`
	Path        string         `toml:"path"`
	Shape       string         `toml:"shape"`
	Body        string         `toml:"body"`
	Items       []string       `toml:"items"`
	Events      []fixtureEvent `toml:"event"`
	Data        string         `toml:"data"`
	ContentType string         `toml:"content_type"`
}

type fixtureEvent struct {
	Name string `toml:"name"`
	ID   string `toml:"id"`
	Data string `toml:"data"`
}

// LoadFixtures reads a TOML fixture file and registers its endpoints.
// Fixture endpoints validate against schema.Any; they exist to serve canned
// payloads, not to enforce contracts.
func (s *Server) LoadFixtures(path string) error {
	var file fixtureFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("decoding fixtures %s: %w", path, err)
	}

	for i, fx := range file.Endpoints {
		ep, h, err := fixtureRegistration(fx)
		if err != nil {
			return fmt.Errorf("fixture %d (%s %s): %w", i, fx.Method, fx.Path, err)
		}
		if err := s.Handle(ep, h); err != nil {
			return fmt.Errorf("fixture %d (%s %s): %w", i, fx.Method, fx.Path, err)
		}
	}

	s.logger.Info("fixtures loaded", "path", path, "endpoints", len(file.Endpoints))
	return nil
}

// WatchFixtures loads the fixture file and reloads it whenever it changes on
// disk. The returned closer stops the watcher.
func (s *Server) WatchFixtures(path string) (io.Closer, error) {
	if err := s.LoadFixtures(path); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fixture watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.LoadFixtures(path); err != nil {
					s.logger.Error("fixture reload failed", "path", path, "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("fixture watcher error", "path", path, "error", err)
			}
		}
	}()

	return watcher, nil
}

// fixtureRegistration converts one fixture declaration into an endpoint and
// its canned handler.
func fixtureRegistration(fx fixtureEndpoint) (endpoint.Endpoint, Handler, error) {
	if fx.Method == "" || fx.Path == "" {
		return endpoint.Endpoint{}, nil, fmt.Errorf("fixture needs a method and path")
	}

	ep := endpoint.Endpoint{Method: fx.Method, Path: fx.Path}

	switch fx.Shape {
	case "json":
		body, err := parseJSONPayload(fx.Body)
		if err != nil {
			return ep, nil, err
		}
		ep.Shape = endpoint.JSONShape{Body: schema.Any()}
		return ep, JSONFunc(func(Request) (any, error) {
			return body, nil
		}), nil

	case "events":
		frames := make([]sse.Frame, 0, len(fx.Events))
		for _, ev := range fx.Events {
			data, err := parseJSONPayload(ev.Data)
			if err != nil {
				return ep, nil, fmt.Errorf("event %q: %w", ev.Name, err)
			}
			name := ev.Name
			if name == "" {
				name = sse.DefaultEventName
			}
			frames = append(frames, sse.Frame{Event: name, ID: ev.ID, Data: data})
		}

		events := make(map[string]schema.Schema)
		for _, f := range frames {
			events[f.Event] = schema.Any()
		}
		ep.Shape = endpoint.EventShape{Events: events}
		return ep, EventsFunc(func(_ Request, w *sse.Writer) error {
			for _, f := range frames {
				if err := w.Write(f); err != nil {
					return err
				}
			}
			return nil
		}), nil

	case "items":
		items := make([]any, 0, len(fx.Items))
		for i, raw := range fx.Items {
			item, err := parseJSONPayload(raw)
			if err != nil {
				return ep, nil, fmt.Errorf("item %d: %w", i, err)
			}
			items = append(items, item)
		}
		ep.Shape = endpoint.ItemShape{Item: schema.Any()}
		return ep, ItemsFunc(func(_ Request, w *stream.ItemWriter) error {
			for _, item := range items {
				if err := w.Write(item); err != nil {
					return err
				}
			}
			return nil
		}), nil

	case "binary":
		payload, err := base64.StdEncoding.DecodeString(fx.Data)
		if err != nil {
			return ep, nil, fmt.Errorf("decoding binary data: %w", err)
		}
		ep.Shape = endpoint.BinaryShape{ContentType: fx.ContentType}
		return ep, BinaryFunc(func(_ Request, w io.Writer) error {
			_, err := w.Write(payload)
			return err
		}), nil

	default:
		return ep, nil, fmt.Errorf("unknown fixture shape %q", fx.Shape)
	}
}

func parseJSONPayload(raw string) (any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return v, nil
}
