package main

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// ControlDoc describes a single control channel or command that driving
// clients expose. The structure is deliberately generic so that future
// clients can attach extra metadata without breaking the API.
type ControlDoc struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Shortcut    string `json:"shortcut,omitempty"`
}

// defaultControlDocs is the canonical description of the driving controls. By
// hosting it on the backend, clients and automated tooling can query the
// endpoint to keep their bindings documentation in sync.
var defaultControlDocs = []ControlDoc{
	{
		ID:          "ignition",
		Label:       "Ignition",
		Description: "Toggle the engine. The car coasts to a stop when switched off while rolling.",
		Shortcut:    "Keyboard E",
	},
	{
		ID:          "accelerator",
		Label:       "Accelerator",
		Description: "Press to accelerate toward the current gear's speed limit.",
		Shortcut:    "W / Arrow Up",
	},
	{
		ID:          "brake",
		Label:       "Brake",
		Description: "Press to slow down. Braking works in any gear, even with the clutch in.",
		Shortcut:    "S / Arrow Down",
	},
	{
		ID:          "clutch",
		Label:       "Clutch",
		Description: "Hold past the bite point to change gear while moving.",
		Shortcut:    "Shift",
	},
	{
		ID:          "steering",
		Label:       "Steering",
		Description: "Turn the wheel up to one and a half rotations either way. Authority fades with speed.",
		Shortcut:    "A / D, Arrow Left / Arrow Right",
	},
	{
		ID:          "gear",
		Label:       "Gear Selector",
		Description: "Select reverse, neutral, or forward gears one through five.",
		Shortcut:    "R, N, 1-5",
	},
	{
		ID:          "reset",
		Label:       "Reset Car",
		Description: "Respawn stationary at the default position with the engine off.",
		Shortcut:    "Keyboard Backspace",
	},
}

// registerControlDocEndpoints registers the HTTP handlers used by driving
// clients to fetch control documentation. The data is served as JSON so it can
// be reused by other tooling without additional parsing work.
func registerControlDocEndpoints(mux *http.ServeMux) {
	mux.HandleFunc("/api/controls", func(w http.ResponseWriter, r *http.Request) {
		// Always work on a copy so that concurrent requests cannot
		// mutate the global slice by accident.
		docs := append([]ControlDoc(nil), defaultControlDocs...)
		sort.SliceStable(docs, func(i, j int) bool {
			if docs[i].Label == docs[j].Label {
				return strings.Compare(docs[i].ID, docs[j].ID) < 0
			}
			return strings.Compare(docs[i].Label, docs[j].Label) < 0
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(docs); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
