// Package mcpserver exposes the note and asset stores as MCP tools and
// resources for LLM integration, over stdio or Streamable HTTP transport.
package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/assetstore"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/notestore"
	"github.com/starford/ansuz/internal/resource"
	"github.com/starford/ansuz/internal/tenant"
)

// ServerName and ServerVersion identify this MCP server to clients.
const (
	ServerName    = "ansuz"
	ServerVersion = "1.0.0"
)

// TenantHeader carries the tenant ID on the Streamable HTTP transport.
const TenantHeader = "X-Tenant"

const instructions = "This MCP server manages tenant-scoped Markdown notes and image assets. " +
	"Notes are identified by slash-separated relative paths; the .md extension is appended automatically. " +
	"Tools return note:// and img:// resource identifiers that can be passed back as the path of other operations. " +
	"Paths containing '..' are rejected."

// Server wraps the MCP server with the Ansuz tools and resources.
type Server struct {
	mcp    *server.MCPServer
	notes  *notestore.Store
	assets *assetstore.Store
}

// New creates an MCP server with all tools and resource templates registered.
func New(notes *notestore.Store, assets *assetstore.Store) *Server {
	s := &Server{notes: notes, assets: assets}

	s.mcp = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions(instructions),
	)

	s.mcp.AddTool(mcp.NewTool("create_or_update_note",
		mcp.WithDescription("Create a new Markdown note or update an existing one at the given path. "+
			"Subdirectories are created automatically. Returns the note:// identifier of the result."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the note (e.g. projects/meeting-notes); .md is appended if missing")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown text content")),
	), s.createOrUpdateNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note, or its note:// identifier")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a Markdown note. Empty parent directories are cleaned up."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note, or its note:// identifier")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the notes in a directory (non-recursive). "+
			"Use an empty string to list the root of the tenant's notes."),
		mcp.WithString("directory", mcp.Description("Directory to list (empty for the root)")),
		mcp.WithBoolean("directories", mcp.Description("Also list sub-directories")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("upload_picture",
		mcp.WithDescription("Upload an image (jpg, jpeg, png, gif) to the given path. "+
			"Content must be base64-encoded bytes or a data: URI. Returns the img:// identifier."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path including the image extension (e.g. images/shot.png)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Base64-encoded image bytes or a data: URI")),
	), s.uploadPicture)

	s.mcp.AddTool(mcp.NewTool("read_picture",
		mcp.WithDescription("Read an image and return it with its detected content type."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the image, or its img:// identifier")),
	), s.readPicture)

	s.mcp.AddTool(mcp.NewTool("delete_picture",
		mcp.WithDescription("Delete an image. Empty parent directories are cleaned up."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the image, or its img:// identifier")),
	), s.deletePicture)

	s.mcp.AddResourceTemplate(noteTemplate(), s.readNoteResource)
	s.mcp.AddResourceTemplate(pictureTemplate(), s.readPictureResource)

	return s
}

func noteTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate("note://{path*}", "notes",
		mcp.WithTemplateDescription("Markdown notes stored in directories"),
		mcp.WithTemplateMIMEType(resource.NoteMIMEType),
	)
}

// pictureTemplate advertises no MIME type: JPEG, PNG, and GIF all flow
// through it, and each read reports the kind detected from the stored bytes.
func pictureTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate("img://{path*}", "pictures",
		mcp.WithTemplateDescription("Image assets referenced from notes"),
	)
}

// ServeStdio starts the MCP server on stdin/stdout with a fixed tenant.
func (s *Server) ServeStdio(tenantID string) error {
	return server.ServeStdio(s.mcp, server.WithStdioContextFunc(func(ctx context.Context) context.Context {
		return tenant.NewContext(ctx, tenantID)
	}))
}

// HTTPHandler returns a Streamable HTTP handler for the MCP server. The
// tenant is taken from the X-Tenant request header.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id := r.Header.Get(TenantHeader); id != "" {
				return tenant.NewContext(ctx, id)
			}
			return ctx
		}),
	)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// tenantID extracts the active tenant or explains how to supply one.
func tenantID(ctx context.Context) (string, error) {
	id, ok := tenant.FromContext(ctx)
	if !ok {
		return "", fmt.Errorf("no tenant in request context; set the %s header", TenantHeader)
	}
	return id, nil
}

// notePath accepts either a plain relative path or a note:// identifier.
func notePath(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		return raw, nil
	}
	kind, logical, err := resource.Decode(raw)
	if err != nil {
		return "", err
	}
	if kind != resource.KindNote {
		return "", fmt.Errorf("expected a note:// identifier, got %s", raw)
	}
	return logical, nil
}

// picturePath accepts either a plain relative path or an img:// identifier.
func picturePath(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		return raw, nil
	}
	kind, logical, err := resource.Decode(raw)
	if err != nil {
		return "", err
	}
	if kind != resource.KindImage {
		return "", fmt.Errorf("expected an img:// identifier, got %s", raw)
	}
	return logical, nil
}

func (s *Server) createOrUpdateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = notePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	uri, created, err := s.notes.Save(ctx, id, path, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	verb := "updated"
	if created {
		verb = "created"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", verb, uri)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = notePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := s.notes.Read(ctx, id, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v; use list_notes to see available notes", err)), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = notePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.notes.Delete(ctx, id, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir := req.GetString("directory", "")
	withDirs := req.GetBool("directories", false)

	entries, err := s.notes.List(ctx, id, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var notes, dirs []string
	for _, e := range entries {
		switch e.Kind {
		case models.KindNote:
			notes = append(notes, e.Name)
		case models.KindDir:
			dirs = append(dirs, e.Name)
		}
	}
	sort.Strings(notes)
	sort.Strings(dirs)

	display := "the root directory"
	if dir != "" {
		display = fmt.Sprintf("directory %q", dir)
	}

	var b strings.Builder
	if len(notes) == 0 {
		fmt.Fprintf(&b, "No Markdown notes found in %s.\n", display)
	} else {
		fmt.Fprintf(&b, "Found %d note(s) in %s:\n", len(notes), display)
		for _, n := range notes {
			fmt.Fprintf(&b, " * %s\n", joinDir(dir, n))
		}
	}
	if withDirs {
		fmt.Fprintf(&b, "Found %d directory(ies) in %s:\n", len(dirs), display)
		for _, d := range dirs {
			fmt.Fprintf(&b, " * %s/\n", joinDir(dir, d))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) uploadPicture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = picturePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := decodeContent(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	uri, created, err := s.assets.Save(ctx, id, path, data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	verb := "updated"
	if created {
		verb = "uploaded"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", verb, uri)), nil
}

func (s *Server) readPicture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = picturePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, kind, err := s.assets.Read(ctx, id, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return mcp.NewToolResultImage(resource.Encode(resource.KindImage, path), encoded, kind.MIME()), nil
}

func (s *Server) deletePicture(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path, err = picturePath(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.assets.Delete(ctx, id, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) readNoteResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return nil, err
	}
	kind, logical, err := resource.Decode(req.Params.URI)
	if err != nil {
		return nil, err
	}
	if kind != resource.KindNote {
		return nil, fmt.Errorf("not a note resource: %s", req.Params.URI)
	}
	content, err := s.notes.Read(ctx, id, logical)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: resource.NoteMIMEType,
			Text:     content,
		},
	}, nil
}

func (s *Server) readPictureResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, err := tenantID(ctx)
	if err != nil {
		return nil, err
	}
	kind, logical, err := resource.Decode(req.Params.URI)
	if err != nil {
		return nil, err
	}
	if kind != resource.KindImage {
		return nil, fmt.Errorf("not a picture resource: %s", req.Params.URI)
	}
	data, assetKind, err := s.assets.Read(ctx, id, logical)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.BlobResourceContents{
			URI:      req.Params.URI,
			MIMEType: assetKind.MIME(),
			Blob:     base64.StdEncoding.EncodeToString(data),
		},
	}, nil
}

// decodeContent accepts plain base64 or a data:[<mediatype>];base64,<data>
// URI and returns the raw bytes. The declared media type of a data URI is
// ignored; the asset store derives the kind from the bytes themselves.
func decodeContent(raw string) ([]byte, error) {
	if strings.HasPrefix(raw, "data:") {
		rest := strings.TrimPrefix(raw, "data:")
		commaIdx := strings.Index(rest, ",")
		if commaIdx < 0 {
			return nil, fmt.Errorf("invalid data URI: missing comma separator")
		}
		meta := rest[:commaIdx]
		if !strings.Contains(meta, ";base64") {
			return nil, fmt.Errorf("only base64 data URIs are supported")
		}
		raw = rest[commaIdx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 content: %w", err)
		}
	}
	return data, nil
}

func joinDir(dir, name string) string {
	if dir == "" || dir == "/" {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}
