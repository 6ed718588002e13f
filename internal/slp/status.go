package slp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// statusJSON mirrors the status response document. Version and players are
// pointers so their absence is detectable and rejected.
type statusJSON struct {
	Version     *versionJSON    `json:"version"`
	Players     *playersJSON    `json:"players"`
	Description json.RawMessage `json:"description"`
	Favicon     string          `json:"favicon"`
}

type versionJSON struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type playersJSON struct {
	Online int          `json:"online"`
	Max    int          `json:"max"`
	Sample []sampleJSON `json:"sample"`
}

type sampleJSON struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// chatComponent is the subset of the chat-component format needed to flatten
// a structured description: text content plus nested extras in document order.
// Styling fields are ignored.
type chatComponent struct {
	Text  string          `json:"text"`
	Extra []chatComponent `json:"extra"`
}

// decodeStatus parses the JSON payload of a status response into a Status.
func decodeStatus(payload string) (*Status, error) {
	var doc statusJSON
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode status JSON: %w", err)
	}

	if doc.Version == nil {
		return nil, fmt.Errorf("status response missing version")
	}
	if doc.Players == nil {
		return nil, fmt.Errorf("status response missing players")
	}
	if doc.Players.Online < 0 || doc.Players.Max < 0 {
		return nil, fmt.Errorf("negative player count: online=%d max=%d",
			doc.Players.Online, doc.Players.Max)
	}

	motd, err := flattenDescription(doc.Description)
	if err != nil {
		return nil, err
	}

	status := &Status{
		VersionName:   doc.Version.Name,
		Protocol:      doc.Version.Protocol,
		MOTD:          motd,
		PlayersOnline: doc.Players.Online,
		PlayersMax:    doc.Players.Max,
		Favicon:       doc.Favicon,
	}

	for _, entry := range doc.Players.Sample {
		player := SamplePlayer{Name: entry.Name}
		// Servers are free to put junk in the sample IDs; keep the name and
		// drop the ID unless it is a real UUID.
		if id, err := uuid.Parse(entry.ID); err == nil {
			player.ID = id.String()
		}
		status.Sample = append(status.Sample, player)
	}

	return status, nil
}

// flattenDescription turns a description field into a plain MOTD string.
// The field is either a JSON string or a chat-component object whose text
// fields are concatenated in document order. An absent description is legal
// and yields an empty MOTD.
func flattenDescription(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, nil
	}

	var component chatComponent
	if err := json.Unmarshal(raw, &component); err != nil {
		return "", fmt.Errorf("decode description: %w", err)
	}

	var sb strings.Builder
	flattenComponent(&sb, component)
	return sb.String(), nil
}

func flattenComponent(sb *strings.Builder, c chatComponent) {
	sb.WriteString(c.Text)
	for _, extra := range c.Extra {
		flattenComponent(sb, extra)
	}
}
