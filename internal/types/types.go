package types

import (
	"prompt_maker_server/internal/catalog"
	"prompt_maker_server/internal/session"
)

// FieldView is a questionnaire field as sent to the front end.
type FieldView struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
	Kind        string `json:"kind"` // "text" or "textarea"
}

// ToolView is a catalog tool without its templates.
type ToolView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Fields      []FieldView `json:"fields"`
}

// SessionView is the JSON shape of a session. ToolID and Artifact are null
// when there is no active tool or no generated prompt.
type SessionView struct {
	ID       string            `json:"id"`
	ToolID   *string           `json:"toolId"`
	Answers  map[string]string `json:"answers"`
	Complete bool              `json:"complete"`
	Missing  []string          `json:"missing"`
	State    string            `json:"state"`
	Artifact *string           `json:"artifact"`
}

func NewToolView(t *catalog.Tool) ToolView {
	fields := make([]FieldView, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = FieldView{ID: f.ID, Label: f.Label, Placeholder: f.Placeholder, Kind: string(f.Kind)}
	}
	return ToolView{ID: t.ID, Name: t.Name, Description: t.Description, Fields: fields}
}

func NewSessionView(snap session.Snapshot) SessionView {
	v := SessionView{
		ID:       snap.ID,
		Answers:  snap.Values,
		Complete: snap.Complete,
		Missing:  snap.Missing,
		State:    string(snap.State),
	}
	if v.Missing == nil {
		v.Missing = []string{}
	}
	if snap.HasTool {
		id := snap.ToolID
		v.ToolID = &id
	}
	if snap.HasArtifact {
		text := snap.Artifact
		v.Artifact = &text
	}
	return v
}
