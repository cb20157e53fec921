package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infra-rag/internal/index"
	"infra-rag/internal/llm"
	"infra-rag/internal/mode"
)

type fakeSearcher struct {
	hits    []index.Hit
	err     error
	queries []string
	ks      []int
}

func (f *fakeSearcher) Search(_ context.Context, query string, k int) ([]index.Hit, error) {
	f.queries = append(f.queries, query)
	f.ks = append(f.ks, k)
	if f.err != nil {
		return nil, f.err
	}
	if k > len(f.hits) {
		k = len(f.hits)
	}
	return f.hits[:k], nil
}

type fakeGenerator struct {
	responses []string
	err       error
	systems   []string
	prompts   []string
}

func (f *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	f.systems = append(f.systems, system)
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func securityGroupHits() []index.Hit {
	return []index.Hit{
		{ID: "1", Path: "modules/web/sg.tf", Text: `ingress { from_port = 80 cidr_blocks = ["0.0.0.0/0"] }`, Score: 0.92},
		{ID: "2", Path: "modules/web/lb.tf", Text: "aws_lb listener on 80", Score: 0.81},
		{ID: "3", Path: "vpc.tf", Text: "vpc cidr 10.0.0.0/16", Score: 0.55},
		{ID: "4", Path: "db/main.tf", Text: "rds instance", Score: 0.41},
		{ID: "5", Path: "iam.tf", Text: "iam role", Score: 0.31},
		{ID: "6", Path: "dns.tf", Text: "route53 zone", Score: 0.22},
		{ID: "7", Path: "outputs.tf", Text: "outputs", Score: 0.11},
	}
}

func newTestOrchestrator(store Searcher, gen Generator) *Orchestrator {
	return New(store, gen, mode.NewSelector(3, 7), 4)
}

func TestAnswerCitesRetrievedSources(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{responses: []string{
		"Port 80 is open to the internet (0.0.0.0/0), declared in modules/web/sg.tf.",
	}}
	o := newTestOrchestrator(store, gen)
	session := NewSession(mode.Architect)

	answer, err := o.Answer(context.Background(), session, "what ports are open to the internet on the web security group?")
	require.NoError(t, err)

	assert.Contains(t, answer.Text, "Port 80")
	assert.Equal(t, []string{"modules/web/sg.tf"}, answer.Sources)
	assert.Equal(t, []int{3}, store.ks, "architect mode retrieves at depth 3")

	require.Len(t, session.Turns, 1)
	assert.Equal(t, mode.Architect, session.Turns[0].Mode)
	assert.Equal(t, answer.Sources, session.Turns[0].Sources)
}

func TestAnswerCitationSoundness(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{responses: []string{
		"See modules/web/sg.tf and also secrets/credentials.tf for details.",
	}}
	o := newTestOrchestrator(store, gen)

	answer, err := o.Answer(context.Background(), NewSession(mode.Architect), "what is exposed?")
	require.NoError(t, err)

	// A path the model invents never becomes a citation.
	assert.Equal(t, []string{"modules/web/sg.tf"}, answer.Sources)
}

func TestAnswerCitationByUniqueBasename(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{responses: []string{"The rule lives in sg.tf."}}
	o := newTestOrchestrator(store, gen)

	answer, err := o.Answer(context.Background(), NewSession(mode.Architect), "where is the ingress rule?")
	require.NoError(t, err)
	assert.Equal(t, []string{"modules/web/sg.tf"}, answer.Sources)
}

func TestFollowUpRewrite(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{responses: []string{
		"Port 80 is open to the internet in modules/web/sg.tf.",
		"SSH (22) is restricted to 10.0.0.0/16, not open to the internet.",
	}}
	o := newTestOrchestrator(store, gen)
	session := NewSession(mode.Architect)

	_, err := o.Answer(context.Background(), session, "what ports are open to the internet on the web security group?")
	require.NoError(t, err)

	answer, err := o.Answer(context.Background(), session, "does it allow SSH?")
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "restricted")

	require.Len(t, store.queries, 2)
	assert.Contains(t, store.queries[1], "web security group")
	assert.NotContains(t, store.queries[1], " it ")

	require.Len(t, session.Turns, 2)
	assert.Contains(t, session.Turns[1].Rewritten, "web security group")
	assert.Equal(t, "does it allow SSH?", session.Turns[1].Question)
}

func TestRewriteWithoutSubjectFallsBackToLiteral(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{responses: []string{"Answer one.", "Answer two."}}
	o := newTestOrchestrator(store, gen)
	session := NewSession(mode.Architect)

	_, err := o.Answer(context.Background(), session, "how are things looking?")
	require.NoError(t, err)
	_, err = o.Answer(context.Background(), session, "is it fine?")
	require.NoError(t, err)

	// No recognizable subject in the previous turn: the literal question is
	// searched as-is.
	assert.Equal(t, "is it fine?", store.queries[1])
}

func TestEmptyIndexAnswersLocally(t *testing.T) {
	store := &fakeSearcher{err: index.ErrEmptyIndex}
	gen := &fakeGenerator{responses: []string{"should never be called"}}
	o := newTestOrchestrator(store, gen)
	session := NewSession(mode.Architect)

	answer, err := o.Answer(context.Background(), session, "what ports are open?")
	require.NoError(t, err)
	assert.Equal(t, NoInformationAnswer, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Empty(t, gen.prompts, "generation must not run against an empty index")
	assert.Len(t, session.Turns, 1)
}

func TestGenerationFailureLeavesSessionValid(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{err: llm.ErrUnavailable}
	o := newTestOrchestrator(store, gen)
	session := NewSession(mode.Architect)

	_, err := o.Answer(context.Background(), session, "what ports are open?")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
	assert.Empty(t, session.Turns, "a failed turn is not recorded")

	gen.err = nil
	gen.responses = []string{"Port 80 is open, per modules/web/sg.tf."}
	answer, err := o.Answer(context.Background(), session, "what ports are open?")
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "Port 80")
	assert.Len(t, session.Turns, 1)
}

func TestDiagramExtractedFromAnswer(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{responses: []string{
		"The web tier looks like this:\n```mermaid\ngraph TD\nA[ALB] --> B[web sg]\n```\nTraffic enters on port 80.",
	}}
	o := newTestOrchestrator(store, gen)

	answer, err := o.Answer(context.Background(), NewSession(mode.Architect), "draw the web tier")
	require.NoError(t, err)
	assert.Contains(t, answer.Diagram, "graph TD")
	assert.NotContains(t, answer.Text, "```")
	assert.Contains(t, answer.Text, "Traffic enters on port 80.")
}

func TestAuditorModeDepthAndPrompt(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{responses: []string{"Finding: port 80 open. CIS violation."}}
	o := newTestOrchestrator(store, gen)
	session := NewSession(mode.Architect)

	require.NoError(t, o.SetMode(session, mode.Auditor))
	_, err := o.Answer(context.Background(), session, "audit the security groups")
	require.NoError(t, err)

	assert.Equal(t, []int{7}, store.ks, "auditor mode retrieves at depth 7")
	assert.Contains(t, gen.systems[0], "Security Auditor")
	assert.Contains(t, gen.prompts[0], "CIS AWS Foundations")
	assert.Equal(t, mode.Auditor, session.Turns[0].Mode)
}

func TestSetModeRejectsUnknown(t *testing.T) {
	o := newTestOrchestrator(&fakeSearcher{}, &fakeGenerator{})
	session := NewSession(mode.Architect)
	err := o.SetMode(session, mode.Mode("operator"))
	assert.ErrorIs(t, err, mode.ErrUnknown)
	assert.Equal(t, mode.Architect, session.Mode)
}

func TestAnswerUnknownModeFailsLoudly(t *testing.T) {
	o := newTestOrchestrator(&fakeSearcher{}, &fakeGenerator{})
	session := &Session{ID: "s", Mode: mode.Mode("bogus")}
	_, err := o.Answer(context.Background(), session, "anything")
	assert.ErrorIs(t, err, mode.ErrUnknown)
}

func TestRetrievalErrorPropagates(t *testing.T) {
	store := &fakeSearcher{err: errors.New("store offline")}
	o := newTestOrchestrator(store, &fakeGenerator{})
	_, err := o.Answer(context.Background(), NewSession(mode.Architect), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval failed")
}

func TestReset(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()}
	gen := &fakeGenerator{responses: []string{"ok"}}
	o := newTestOrchestrator(store, gen)
	session := NewSession(mode.Architect)

	_, err := o.Answer(context.Background(), session, "what ports are open?")
	require.NoError(t, err)
	require.Len(t, session.Turns, 1)

	session.Reset()
	assert.Empty(t, session.Turns)
	assert.Equal(t, mode.Architect, session.Mode)
}

func TestPromptIncludesTaggedSourcesAndHistory(t *testing.T) {
	store := &fakeSearcher{hits: securityGroupHits()[:1]}
	gen := &fakeGenerator{responses: []string{"First answer.", "Second answer."}}
	o := newTestOrchestrator(store, gen)
	session := NewSession(mode.Architect)

	_, err := o.Answer(context.Background(), session, "first question about the vpc?")
	require.NoError(t, err)
	_, err = o.Answer(context.Background(), session, "second question?")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "Source: modules/web/sg.tf")
	assert.Contains(t, gen.prompts[0], "I cannot find it in the provided code")
	assert.NotContains(t, gen.prompts[0], "Previous conversation:")
	assert.Contains(t, gen.prompts[1], "Previous conversation:")
	assert.Contains(t, gen.prompts[1], "first question about the vpc?")
}
