package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/custodia-labs/scribe/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads generative prompts from user-editable files, falling back
// to built-in defaults. The directory and default files are created lazily
// on the first Load, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	fs        afero.Fs
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are 'Scribe', a helpful tabletop RPG rules assistant.
Answer *only* from the System Reference Document (SRD) context you are given. Be concise and direct.
If the question (which might be formatted as 'User: ... Bot:') asks for advice, optimisation or creative ideas, you may synthesise suggestions grounded in the provided context.
Do not introduce rules, abilities or concepts that the context does not contain or directly support.
If the context does not hold enough information to answer, say so clearly.
Cite the chunks you relied on by their [chunk N] labels.`,

	driven.PromptAnswer: `Context:
%s

Question: %s

Helpful Answer:`,
}

// NewPromptStore creates a prompt store on the OS filesystem.
// If promptDir is empty, defaults to ~/.scribe/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	return NewPromptStoreFs(afero.NewOsFs(), promptDir)
}

// NewPromptStoreFs creates a prompt store on an arbitrary filesystem.
func NewPromptStoreFs(fsys afero.Fs, promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".scribe", "prompts")
	}

	return &PromptStore{
		fs:        fsys,
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name. A missing or blank
// file falls back to the built-in default; unknown names without a file are
// an error.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if def, ok := defaultPrompts[name]; ok {
			return def, nil
		}
		if err == nil {
			err = fmt.Errorf("empty prompt file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func (s *PromptStore) initialise() {
	if err := s.fs.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		exists, err := afero.Exists(s.fs, path)
		if err != nil {
			s.initErr = err
			return
		}
		if !exists {
			if err := afero.WriteFile(s.fs, path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if exists, _ := afero.Exists(s.fs, path); exists {
		return nil
	}

	content := `# Scribe Prompts

These files shape generative answers from ` + "`scribe query --generative`" + `.

- ` + "`answer_system.txt`" + ` - system instruction sent with every generative answer
- ` + "`answer.txt`" + ` - user turn; the first ` + "`%s`" + ` is the retrieved context, the second the question

Edits take effect on the next command. Keep both ` + "`%s`" + ` placeholders in
answer.txt, in that order. Delete a file to restore its default.
`
	return afero.WriteFile(s.fs, path, []byte(content), 0600)
}
