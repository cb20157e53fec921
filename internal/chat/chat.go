// Package chat orchestrates one question/answer turn: query rewrite against
// session history, mode-aware retrieval, prompt assembly, generation, and
// citation and diagram extraction.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"infra-rag/internal/diagram"
	"infra-rag/internal/index"
	"infra-rag/internal/mode"
)

// NoInformationAnswer is returned when the index holds no chunks at all.
// An empty index is "no knowledge available", never an error to the user.
const NoInformationAnswer = "No relevant information found in the indexed infrastructure code. Run an ingestion pass first."

// Searcher is the retrieval side of the vector index, as the orchestrator
// consumes it.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]index.Hit, error)
}

// Generator is the consumed generation capability.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Answer is one answered turn as handed back to the UI collaborator.
type Answer struct {
	Text    string
	Sources []string
	Diagram string
}

// Orchestrator drives sessions through retrieval and generation. Safe to
// share across sessions; all per-conversation state lives in the Session.
type Orchestrator struct {
	store         Searcher
	generator     Generator
	selector      *mode.Selector
	historyWindow int
}

// New creates an orchestrator. historyWindow bounds how many prior turns are
// replayed into each prompt.
func New(store Searcher, generator Generator, selector *mode.Selector, historyWindow int) *Orchestrator {
	return &Orchestrator{
		store:         store,
		generator:     generator,
		selector:      selector,
		historyWindow: historyWindow,
	}
}

// SetMode switches the session's operating mode for subsequent turns.
func (o *Orchestrator) SetMode(s *Session, m mode.Mode) error {
	if _, err := o.selector.Select(m); err != nil {
		return err
	}
	s.Mode = m
	return nil
}

// Answer runs one full turn. A generation failure surfaces as an error for
// this turn only: no turn is appended and the session remains usable.
func (o *Orchestrator) Answer(ctx context.Context, s *Session, question string) (Answer, error) {
	strat, err := o.selector.Select(s.Mode)
	if err != nil {
		return Answer{}, err
	}

	rewritten := rewriteQuestion(question, s.lastTurn())
	if rewritten != question {
		log.Debug().Str("session", s.ID).Str("rewritten", rewritten).Msg("resolved follow-up question")
	}

	hits, err := o.store.Search(ctx, rewritten, strat.K)
	if errors.Is(err, index.ErrEmptyIndex) {
		answer := Answer{Text: NoInformationAnswer}
		s.Turns = append(s.Turns, Turn{
			Question:  question,
			Rewritten: rewritten,
			Answer:    answer.Text,
			Mode:      s.Mode,
			AskedAt:   time.Now(),
		})
		return answer, nil
	}
	if err != nil {
		return Answer{}, fmt.Errorf("retrieval failed: %w", err)
	}

	prompt := buildPrompt(strat, hits, s.Turns, o.historyWindow, rewritten)
	raw, err := o.generator.Generate(ctx, strat.Persona, prompt)
	if err != nil {
		return Answer{}, fmt.Errorf("answering %q: %w", question, err)
	}

	display, payload, _ := diagram.Extract(raw)
	answer := Answer{
		Text:    display,
		Sources: citedSources(raw, hits),
		Diagram: payload,
	}
	s.Turns = append(s.Turns, Turn{
		Question:  question,
		Rewritten: rewritten,
		Answer:    answer.Text,
		Sources:   answer.Sources,
		Diagram:   answer.Diagram,
		Mode:      s.Mode,
		AskedAt:   time.Now(),
	})
	return answer, nil
}
