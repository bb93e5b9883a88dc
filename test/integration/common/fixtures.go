package common

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/RealZimboGuy/flowlint/internal/repository"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/core"
	"github.com/RealZimboGuy/flowlint/pkg/flowlint/domain"
)

const (
	UnikID      = "b5f0e8c4-daa6-465c-bded-50ca22b798b2"
	OtherUnikID = "0d9c1a2e-3f4b-4c5d-8e6f-7a8b9c0d1e2f"

	ValidCanvasID     = "11111111-1111-4111-8111-111111111111"
	InvalidCanvasID   = "22222222-2222-4222-8222-222222222222"
	MalformedCanvasID = "33333333-3333-4333-8333-333333333333"
	OtherCanvasID     = "44444444-4444-4444-8444-444444444444"
	MissingCanvasID   = "00000000-0000-0000-0000-000000000000"

	ApiKey   = "8c1f7d2a-6b3e-4f59-9a0d-2e4c6b8a1f3d"
	Username = "admin"
	Password = "s3cret"
)

const ComponentsYAML = `components:
  - name: chatOpenAI
    label: ChatOpenAI
    credential:
      label: Connect Credential
      name: credential
      type: credential
    inputs:
      - label: Model Name
        name: modelName
        type: options
      - label: Temperature
        name: temperature
        type: number
        optional: true
  - name: conversationChain
    label: Conversation Chain
    inputs:
      - label: Chat Model
        name: model
        type: BaseChatModel
      - label: System Message
        name: systemMessagePrompt
        type: string
        optional: true
`

// ValidFlow is a chat model wired into a chain, stored in its stringified form.
const ValidFlow = `"{\"nodes\":[{\"id\":\"chatOpenAI_0\",\"data\":{\"label\":\"ChatOpenAI\",\"name\":\"chatOpenAI\",\"credential\":\"cred-1\",\"inputs\":{\"modelName\":\"gpt-4o\"}}},{\"id\":\"conversationChain_0\",\"data\":{\"label\":\"Conversation Chain\",\"name\":\"conversationChain\",\"inputs\":{\"model\":\"{{chatOpenAI_0.data.instance}}\"}}},{\"id\":\"stickyNote_0\",\"type\":\"stickyNote\",\"data\":{\"name\":\"stickyNote\",\"inputs\":{}}}],\"edges\":[{\"id\":\"e1\",\"source\":\"chatOpenAI_0\",\"target\":\"conversationChain_0\"}]}"`

// InvalidFlow misses a credential, leaves a node unconnected and has an edge to a deleted node.
const InvalidFlow = `{
  "nodes": [
    {"id": "chatOpenAI_0", "data": {"label": "ChatOpenAI", "name": "chatOpenAI", "inputs": {"modelName": "gpt-4o"}}},
    {"id": "conversationChain_0", "data": {"label": "Conversation Chain", "name": "conversationChain", "inputs": {"model": "{{chatOpenAI_0.data.instance}}"}}},
    {"id": "conversationChain_1", "data": {"label": "Conversation Chain", "name": "conversationChain", "inputs": {}}}
  ],
  "edges": [
    {"id": "e1", "source": "chatOpenAI_0", "target": "conversationChain_0"},
    {"id": "e2", "source": "conversationChain_0", "target": "deleted_0"}
  ]
}`

// WriteComponentsFile stores the catalog in a temp dir and returns its path.
func WriteComponentsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "components.yaml")
	if err := os.WriteFile(path, []byte(ComponentsYAML), 0o644); err != nil {
		t.Fatalf("Failed to write components file: %v", err)
	}
	return path
}

// SeedCanvases stores the fixture canvases and an API user.
func SeedCanvases(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()
	clock := core.NewRealClock()
	canvases := repository.NewCanvasRepository(db, clock)

	for _, c := range []struct {
		id, unik, name, data string
	}{
		{ValidCanvasID, UnikID, "valid", ValidFlow},
		{InvalidCanvasID, UnikID, "invalid", InvalidFlow},
		{MalformedCanvasID, UnikID, "malformed", "{not json"},
		{OtherCanvasID, OtherUnikID, "other tenant", ValidFlow},
	} {
		err := canvases.Save(ctx, &domain.Canvas{
			ID:       c.id,
			UnikID:   sql.NullString{String: c.unik, Valid: true},
			Name:     c.name,
			FlowData: sql.NullString{String: c.data, Valid: true},
		})
		if err != nil {
			t.Fatalf("Failed to seed canvas %s: %v", c.name, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	users := repository.NewUserRepository(db, clock)
	if _, err := users.Save(ctx, &domain.User{
		Username: Username,
		Password: string(hash),
		ApiKey:   sql.NullString{String: ApiKey, Valid: true},
	}); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
}
