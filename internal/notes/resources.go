package notes

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/brbranch/mcp-notes/internal/capability"
	"github.com/brbranch/mcp-notes/internal/model"
	"github.com/brbranch/mcp-notes/internal/service"
)

// Template はノートリソースのURIテンプレート
var Template = model.ResourceTemplate{
	URITemplate: model.NoteURIPrefix + "{name}",
	Name:        "Note",
	Description: "A text note addressed by its name",
	MimeType:    model.NoteMimeType,
}

// Provider はノートを note:/// リソースとして公開するプロバイダを返す
func Provider(svc service.NoteService) capability.ResourceProvider {
	return capability.ResourceProvider{
		Prefix: model.NoteURIPrefix,
		List: func(ctx context.Context) ([]model.Resource, error) {
			names, err := svc.List(ctx)
			if err != nil {
				return nil, err
			}

			resources := make([]model.Resource, 0, len(names))
			for _, name := range names {
				resources = append(resources, model.NoteResource(name))
			}
			return resources, nil
		},
		Read: func(ctx context.Context, uri string) (*model.ResourcesReadResult, error) {
			name, err := nameFromURI(uri)
			if err != nil {
				return nil, err
			}

			note, err := svc.Read(ctx, name)
			if err != nil {
				if errors.Is(err, service.ErrNoteNotFound) {
					return nil, model.NewCapabilityError(model.KindNotFound, "Note '%s' not found", model.SanitizeName(name))
				}
				return nil, err
			}

			return &model.ResourcesReadResult{
				Contents: []model.ResourceContents{{
					URI:      model.NoteURI(note.Name),
					MimeType: model.NoteMimeType,
					Text:     note.Content,
				}},
			}, nil
		},
	}
}

// nameFromURI はURIからノート名を取り出す
// パーセントエンコードされたURIも受け付ける
func nameFromURI(uri string) (string, error) {
	name, ok := model.NameFromURI(uri)
	if !ok {
		return "", model.NewCapabilityError(model.KindInvalidURI, "Invalid note URI: %s", uri)
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if model.SanitizeName(name) == "" {
		return "", model.NewCapabilityError(model.KindInvalidURI, "Invalid note URI: %s", uri)
	}
	return name, nil
}

// Register はノート用のツール・リソースプロバイダ・テンプレートを登録する
func Register(r *capability.Registry, svc service.NoteService) error {
	h := &handlers{svc: svc}
	for _, tool := range Tools() {
		if err := r.RegisterTool(tool, h.forTool(tool.Name)); err != nil {
			return fmt.Errorf("register %s: %w", tool.Name, err)
		}
	}

	if err := r.RegisterResourceProvider(Provider(svc)); err != nil {
		return fmt.Errorf("register note provider: %w", err)
	}
	if err := r.RegisterResourceTemplate(Template); err != nil {
		return fmt.Errorf("register note template: %w", err)
	}
	return nil
}
