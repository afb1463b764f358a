package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	resourceScheme     = "papers://"
	foldersResourceURI = "papers://folders"
	markdownMIMEType   = "text/markdown"
)

// resourceDescriptor describes one resource in a resources/list response.
type resourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MIMEType    string `json:"mimeType"`
}

// resourceContents is one entry of a resources/read result.
type resourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Text     string `json:"text"`
}

// handleResourceList serves resources/list: the static folders
// resource plus one resource per cached topic.
func (s *Server) handleResourceList(w http.ResponseWriter, req rpcRequest) {
	topics, err := s.store.ListTopics()
	if err != nil {
		s.logger.Error().Err(err).Msg("listing topics failed")
		s.writeRPCError(w, http.StatusInternalServerError, req.Method, req.ID, codeInternalError, "Internal error", err.Error())
		return
	}

	resources := make([]resourceDescriptor, 0, len(topics)+1)
	resources = append(resources, resourceDescriptor{
		URI:         foldersResourceURI,
		Name:        "Available Topics",
		Description: "List of all topic folders with cached papers",
		MIMEType:    markdownMIMEType,
	})
	for _, t := range topics {
		resources = append(resources, resourceDescriptor{
			URI:      resourceScheme + t.Slug,
			Name:     fmt.Sprintf("Papers on %s", strings.ReplaceAll(t.Slug, "_", " ")),
			MIMEType: markdownMIMEType,
		})
	}

	s.writeRPCResult(w, req.ID, map[string]interface{}{"resources": resources})
}

// handleResourceRead serves resources/read for papers://folders and
// papers://{topic} URIs.
func (s *Server) handleResourceRead(w http.ResponseWriter, req rpcRequest) {
	var params readParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeRPCError(w, http.StatusBadRequest, req.Method, req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}
	if !strings.HasPrefix(params.URI, resourceScheme) {
		s.writeRPCError(w, http.StatusBadRequest, req.Method, req.ID, codeInvalidParams, "Invalid params", fmt.Sprintf("unknown resource URI: %s", params.URI))
		return
	}

	var (
		text string
		err  error
	)
	if params.URI == foldersResourceURI {
		text, err = s.store.FoldersReport()
	} else {
		text, err = s.store.TopicReport(strings.TrimPrefix(params.URI, resourceScheme))
	}
	if err != nil {
		s.logger.Error().Err(err).Str("uri", params.URI).Msg("resource read failed")
		s.writeRPCError(w, http.StatusInternalServerError, req.Method, req.ID, codeInternalError, "Internal error", err.Error())
		return
	}

	s.writeRPCResult(w, req.ID, map[string]interface{}{
		"contents": []resourceContents{{
			URI:      params.URI,
			MIMEType: markdownMIMEType,
			Text:     text,
		}},
	})
}
