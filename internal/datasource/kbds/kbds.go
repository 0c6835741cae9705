// File: kbds.go
// Title: Knowledge-Base Datasource Adapter
// Description: Exposes the vector store as a datasource backend. The
//              payload is the search query; max results and minimum score
//              come from the descriptor options. Matches become records
//              with id, content, score, and metadata fields.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial knowledge-base adapter

package kbds

import (
	"context"
	"strings"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl/datasource"
)

// KindKnowledgeBase is the backend kind string this adapter serves
const KindKnowledgeBase = "knowledge-base"

// Options configures an Adapter
type Options struct {
	// Store answers similarity queries (required)
	Store *Store

	// Logger for adapter diagnostics (optional)
	Logger *log.Logger
}

// Adapter routes search queries to the vector store
type Adapter struct {
	store  *Store
	logger *log.Logger
}

// New creates a knowledge-base adapter
func New(opts Options) (*Adapter, error) {
	if opts.Store == nil {
		return nil, formaerror.New("knowledge-base adapter requires a store").
			WithCode(formaerror.CodeMissingConfig).
			WithOperation("kbds.New")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.GetDefault()
	}

	return &Adapter{
		store:  opts.Store,
		logger: logger.WithName("datasource.kb"),
	}, nil
}

// Kind implements datasource.Adapter
func (a *Adapter) Kind() string {
	return KindKnowledgeBase
}

// Execute searches the store for the query in the payload
func (a *Adapter) Execute(_ context.Context, desc *datasource.QueryDescriptor) (*datasource.QueryResult, error) {
	query := strings.TrimSpace(desc.Payload)
	if query == "" {
		return nil, formaerror.New("knowledge-base payload requires a query").
			WithCode(formaerror.CodeInvalidInput).
			WithOperation("kbds.Execute")
	}

	matches, err := a.store.Search(query, desc.Options.MaxResults, desc.Options.MinScore)
	if err != nil {
		return nil, err
	}

	records := make([]map[string]interface{}, len(matches))
	for i, match := range matches {
		record := map[string]interface{}{
			"id":      match.Document.ID,
			"content": match.Document.Content,
			"score":   match.Score,
		}
		for key, value := range match.Document.Metadata {
			if _, reserved := record[key]; !reserved {
				record[key] = value
			}
		}
		records[i] = record
	}

	a.logger.Debug("knowledge-base search completed", log.Fields{
		"matches": len(records),
	})
	return &datasource.QueryResult{Success: true, Records: records}, nil
}
