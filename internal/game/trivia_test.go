package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrivia(t *testing.T, roles []string, target int) *triviaEngine {
	t.Helper()
	content := DefaultContent().Trivia
	content.TargetScore = target
	e := newTriviaEngine(content, roles, rand.New(rand.NewSource(1)))
	e.Start()
	return e
}

func TestTriviaDealExactlyOneHolder(t *testing.T) {
	roles := []string{"alpha", "bravo", "charlie"}
	e := newTestTrivia(t, roles, 1000)

	// Every deal must hand out uniform sets with exactly one of them
	// containing the correct answer. Wrong answers force a fresh deal
	// without ever finishing.
	for round := 0; round < 40; round++ {
		holders := 0
		for _, role := range roles {
			set := e.options[role]
			require.Len(t, set, optionsPerPlayer, "round %d role %s", round, role)

			seen := make(map[string]struct{}, len(set))
			for _, opt := range set {
				_, dup := seen[opt]
				require.False(t, dup, "round %d role %s repeats %q", round, role, opt)
				seen[opt] = struct{}{}
			}
			if _, has := seen[e.current.Correct]; has {
				holders++
			}
		}
		require.Equal(t, 1, holders, "round %d", round)

		_, err := e.Apply("alpha", Action{Kind: ActionAnswer, Answer: "definitely wrong"})
		require.NoError(t, err)
	}
}

func TestTriviaTwoPlayerPoolClamp(t *testing.T) {
	e := newTestTrivia(t, []string{"alpha", "bravo"}, 1000)

	// With two players the shared wrong-answer pool holds seven entries,
	// so both visible sets combined can span at most eight values.
	union := make(map[string]struct{})
	for _, role := range []string{"alpha", "bravo"} {
		require.Len(t, e.options[role], optionsPerPlayer)
		for _, opt := range e.options[role] {
			union[opt] = struct{}{}
		}
	}
	assert.LessOrEqual(t, len(union), optionsPerPlayer*2)
}

func TestTriviaWrongAnswerResetsScore(t *testing.T) {
	e := newTestTrivia(t, []string{"alpha", "bravo"}, 5)

	for i := 0; i < 2; i++ {
		out, err := e.Apply("alpha", Action{Kind: ActionAnswer, Answer: e.current.Correct})
		require.NoError(t, err)
		assert.Equal(t, VerdictContinue, out.Verdict)
	}
	assert.Equal(t, 2, e.score)

	out, err := e.Apply("bravo", Action{Kind: ActionAnswer, Answer: "definitely wrong"})
	require.NoError(t, err)
	assert.Equal(t, VerdictContinue, out.Verdict)
	assert.Equal(t, 0, e.score)
	assert.Equal(t, "wrong", e.lastResult)

	// A fresh question is already in play after the wipe.
	assert.True(t, e.inPlay)
}

func TestTriviaFinishesAtTarget(t *testing.T) {
	e := newTestTrivia(t, []string{"alpha"}, 2)

	out, err := e.Apply("alpha", Action{Kind: ActionAnswer, Answer: e.current.Correct})
	require.NoError(t, err)
	assert.Equal(t, VerdictContinue, out.Verdict)

	out, err = e.Apply("alpha", Action{Kind: ActionAnswer, Answer: e.current.Correct})
	require.NoError(t, err)
	assert.Equal(t, VerdictSuccess, out.Verdict)

	_, err = e.Apply("alpha", Action{Kind: ActionAnswer, Answer: e.current.Correct})
	var rej *RejectError
	require.ErrorAs(t, err, &rej)
}

func TestTriviaViewIsPersonal(t *testing.T) {
	e := newTestTrivia(t, []string{"alpha", "bravo", "charlie"}, 5)

	va := e.View("alpha")
	vb := e.View("bravo")

	assert.Equal(t, va["question"], vb["question"])
	assert.Equal(t, va["score"], vb["score"])

	// Options are the per-recipient part of the snapshot.
	assert.Equal(t, e.options["alpha"], va["options"])
	assert.Equal(t, e.options["bravo"], vb["options"])
}

func TestTriviaRejectsForeignActions(t *testing.T) {
	e := newTestTrivia(t, []string{"alpha"}, 5)

	_, err := e.Apply("alpha", Action{Kind: ActionConfigure, Value: "sun"})
	var rej *RejectError
	require.ErrorAs(t, err, &rej)
}
