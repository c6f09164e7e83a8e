// Package notes exposes the note service as MCP tools and note:/// resources.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/brbranch/mcp-notes/internal/capability"
	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/schema"
	"github.com/brbranch/mcp-notes/internal/service"
)

// ツール名
const (
	ToolCreateNote = "create_note"
	ToolDeleteNote = "delete_note"
	ToolListNotes  = "list_notes"
)

// CreateNoteParams は create_note の引数
type CreateNoteParams struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// DeleteNoteParams は delete_note の引数
type DeleteNoteParams struct {
	Name string `json:"name"`
}

// Tools はノート用ツールの宣言を返す
func Tools() []model.Tool {
	return []model.Tool{
		{
			Name:        ToolCreateNote,
			Description: "Create a new note with the given name and content",
			InputSchema: &jsonschema.Schema{
				Type: schema.TypeObject,
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        schema.TypeString,
						Description: "Name of the note (without .txt extension)",
					},
					"content": {
						Type:        schema.TypeString,
						Description: "Content of the note",
					},
				},
				Required: []string{"name", "content"},
			},
		},
		{
			Name:        ToolDeleteNote,
			Description: "Delete an existing note",
			InputSchema: &jsonschema.Schema{
				Type: schema.TypeObject,
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        schema.TypeString,
						Description: "Name of the note to delete",
					},
				},
				Required: []string{"name"},
			},
		},
		{
			Name:        ToolListNotes,
			Description: "List all available notes",
			InputSchema: &jsonschema.Schema{
				Type:       schema.TypeObject,
				Properties: map[string]*jsonschema.Schema{},
			},
		},
	}
}

// handlers はツール名とハンドラーの対応
type handlers struct {
	svc service.NoteService
}

func (h *handlers) forTool(name string) capability.ToolHandler {
	switch name {
	case ToolCreateNote:
		return h.createNote
	case ToolDeleteNote:
		return h.deleteNote
	case ToolListNotes:
		return h.listNotes
	default:
		return nil
	}
}

// createNote は create_note を処理
func (h *handlers) createNote(ctx context.Context, args map[string]any) (*model.ToolsCallResult, error) {
	var p CreateNoteParams
	if err := capability.BindArguments(args, &p); err != nil {
		return nil, err
	}

	resp, err := h.svc.Create(ctx, p.Name, p.Content)
	if err != nil {
		return nil, mapError(err)
	}

	return model.NewTextResult(fmt.Sprintf("Note '%s' created successfully!", resp.Name)), nil
}

// deleteNote は delete_note を処理
// 存在しないノートはエラーではなく通知テキストを返す
func (h *handlers) deleteNote(ctx context.Context, args map[string]any) (*model.ToolsCallResult, error) {
	var p DeleteNoteParams
	if err := capability.BindArguments(args, &p); err != nil {
		return nil, err
	}

	resp, err := h.svc.Delete(ctx, p.Name)
	if err != nil {
		return nil, mapError(err)
	}

	if !resp.Existed {
		return model.NewTextResult(fmt.Sprintf("Note '%s' not found.", resp.Name)), nil
	}
	return model.NewTextResult(fmt.Sprintf("Note '%s' deleted successfully!", resp.Name)), nil
}

// listNotes は list_notes を処理
func (h *handlers) listNotes(ctx context.Context, args map[string]any) (*model.ToolsCallResult, error) {
	names, err := h.svc.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	if len(names) == 0 {
		return model.NewTextResult("No notes found."), nil
	}

	var b strings.Builder
	b.WriteString("Available notes:")
	for _, name := range names {
		b.WriteString("\n- ")
		b.WriteString(name)
	}
	return model.NewTextResult(b.String()), nil
}

// mapError はサービスエラーをCapabilityErrorに変換
func mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		return model.NewFieldError(model.KindInvalidArgument, "name", "%s", err.Error())
	case errors.Is(err, service.ErrNoteNotFound):
		return model.NewCapabilityError(model.KindNotFound, "%s", err.Error())
	default:
		return err
	}
}
