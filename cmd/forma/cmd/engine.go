package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/formalang/forma/foundation/core/config"
	"github.com/formalang/forma/foundation/core/log"
	"github.com/formalang/forma/foundation/ftl"
	"github.com/formalang/forma/foundation/ftl/scope"
	"github.com/formalang/forma/internal/datasource/httpds"
	"github.com/formalang/forma/internal/datasource/kbds"
	"github.com/formalang/forma/internal/datasource/kvds"
	"github.com/formalang/forma/internal/datasource/llmds"
	"github.com/formalang/forma/internal/datasource/sqlds"
)

var (
	dbPath      string
	ollamaURL   string
	llmModel    string
	kbDir       string
	strictCache bool
	sessionID   string
	varFlags    []string
)

// newEngine builds an engine with all datasource adapters registered.
// Flags win over config file values.
func newEngine() (*ftl.Engine, error) {
	logger := log.GetDefault()
	if verbose {
		logger.SetLevel(log.LevelDebug)
	}

	opts := ftl.Options{
		Logger:          logger,
		StrictTreeCache: strictCache,
	}

	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		opts.ExpressionCapacity = cfg.GetInt("engine.expression_capacity")
		opts.MaxCallDepth = cfg.GetInt("engine.max_call_depth")
		if dbPath == "" {
			dbPath = cfg.GetString("datasource.sqlite")
		}
		if ollamaURL == "" {
			ollamaURL = cfg.GetString("datasource.ollama_url")
		}
		if llmModel == "" {
			llmModel = cfg.GetString("datasource.model")
		}
		if kbDir == "" {
			kbDir = cfg.GetString("datasource.knowledge_dir")
		}
	}

	engine, err := ftl.New(opts)
	if err != nil {
		return nil, err
	}
	router := engine.Router()

	if err := router.Register(kvds.New(kvds.Options{Logger: logger})); err != nil {
		return nil, err
	}
	if err := router.Register(httpds.New(httpds.Options{Logger: logger})); err != nil {
		return nil, err
	}

	if dbPath != "" {
		sqlAdapter, err := sqlds.New(sqlds.Options{Path: dbPath, Logger: logger})
		if err != nil {
			return nil, err
		}
		if err := router.Register(sqlAdapter); err != nil {
			return nil, err
		}
	}

	provider := llmds.NewOllama(llmds.OllamaOptions{BaseURL: ollamaURL, Model: llmModel})
	llmAdapter, err := llmds.New(llmds.Options{Provider: provider, Logger: logger})
	if err != nil {
		return nil, err
	}
	if err := router.Register(llmAdapter); err != nil {
		return nil, err
	}

	if kbDir != "" {
		store := kbds.NewStore(kbds.StoreOptions{Logger: logger})
		count, err := loadDocuments(store, kbDir)
		if err != nil {
			return nil, err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d documents from %s\n", count, kbDir)
		}
		kbAdapter, err := kbds.New(kbds.Options{Store: store, Logger: logger})
		if err != nil {
			return nil, err
		}
		if err := router.Register(kbAdapter); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

// loadDocuments indexes every .txt and .md file below dir
func loadDocuments(store *kbds.Store, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		if err := store.Add(kbds.Document{
			ID:       rel,
			Content:  string(data),
			Metadata: map[string]interface{}{"path": path},
		}); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// applyVars binds --var key=value pairs into the context. Values that
// parse as numbers or booleans are bound typed, everything else as string.
func applyVars(ec *scope.ExecutionContext) error {
	for _, pair := range varFlags {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid --var %q, expected key=value", pair)
		}
		ec.Set(key, parseVarValue(value), scope.KindComponent)
	}
	return nil
}

func parseVarValue(s string) interface{} {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
