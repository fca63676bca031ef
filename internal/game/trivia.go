package game

import (
	"math/rand"
	"sort"
)

const optionsPerPlayer = 4

// triviaEngine runs the shared question loop. The crew shares one
// score and one correct answer per question; the deal guarantees that
// exactly one participant can see the correct answer at any moment,
// and nobody can rule options out by comparing set sizes.
type triviaEngine struct {
	content TriviaContent
	roles   []string
	rng     *rand.Rand

	score      int
	asked      int
	pool       []int
	current    Question
	inPlay     bool
	options    map[string][]string
	lastResult string
	finished   bool
}

func newTriviaEngine(c TriviaContent, roles []string, rng *rand.Rand) *triviaEngine {
	sorted := append([]string(nil), roles...)
	sort.Strings(sorted)
	return &triviaEngine{
		content: c,
		roles:   sorted,
		rng:     rng,
		options: make(map[string][]string),
	}
}

func (e *triviaEngine) Type() Type { return TypeTrivia }

func (e *triviaEngine) Start() { e.nextQuestion() }

func (e *triviaEngine) Apply(role string, act Action) (*Outcome, error) {
	if act.Kind != ActionAnswer {
		return nil, Reject("that action is not available in a quiz room")
	}
	if e.finished {
		return nil, Reject("the quiz is already solved")
	}
	if !e.inPlay {
		return nil, Reject("no question in play")
	}

	if act.Answer == e.current.Correct {
		e.score++
		e.lastResult = "correct"
		if e.score >= e.content.TargetScore {
			e.finished = true
			e.inPlay = false
			return &Outcome{Verdict: VerdictSuccess, Reason: "target score reached"}, nil
		}
		e.nextQuestion()
		return &Outcome{Verdict: VerdictContinue, Reason: "correct"}, nil
	}

	// All-or-nothing: one wrong answer wipes the whole crew's score.
	e.score = 0
	e.lastResult = "wrong"
	e.nextQuestion()
	return &Outcome{Verdict: VerdictContinue, Reason: "wrong answer, score reset"}, nil
}

func (e *triviaEngine) View(role string) map[string]any {
	return map[string]any{
		"score":          e.score,
		"target":         e.content.TargetScore,
		"question":       e.current.Text,
		"question_index": e.asked,
		"options":        e.options[role],
		"last_result":    e.lastResult,
	}
}

// nextQuestion draws from the shuffled pool, reshuffling the whole
// bank when it runs dry so the quiz never dead-ends.
func (e *triviaEngine) nextQuestion() {
	if len(e.content.Questions) == 0 {
		return
	}
	if len(e.pool) == 0 {
		e.pool = e.rng.Perm(len(e.content.Questions))
	}
	e.current = e.content.Questions[e.pool[0]]
	e.pool = e.pool[1:]
	e.asked++
	e.inPlay = true
	e.deal()
}

// deal hands every participant exactly optionsPerPlayer visible
// options. One participant, chosen uniformly at random, receives the
// correct answer; everyone else draws from a shared pool of wrong
// answers sized so set sizes stay uniform. Everything clamps down when
// the question has fewer distinct wrong answers than the pool wants.
func (e *triviaEngine) deal() {
	n := len(e.roles)
	e.options = make(map[string][]string, n)
	if n == 0 {
		return
	}

	wrong := distinctWrong(e.current)
	e.rng.Shuffle(len(wrong), func(i, j int) { wrong[i], wrong[j] = wrong[j], wrong[i] })

	poolSize := optionsPerPlayer*n - 1
	if n >= 3 {
		poolSize = optionsPerPlayer*3 - 1
	}
	if poolSize > len(wrong) {
		poolSize = len(wrong)
	}
	pool := wrong[:poolSize]

	holder := e.roles[e.rng.Intn(n)]
	for _, role := range e.roles {
		var set []string
		if role == holder {
			set = append(set, e.current.Correct)
			set = append(set, e.draw(pool, optionsPerPlayer-1)...)
		} else {
			set = e.draw(pool, optionsPerPlayer)
		}
		e.rng.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
		e.options[role] = set
	}
}

// draw samples k distinct entries from pool. Distinctness holds within
// one participant's set; the pool is shared across participants.
func (e *triviaEngine) draw(pool []string, k int) []string {
	if k > len(pool) {
		k = len(pool)
	}
	idx := e.rng.Perm(len(pool))[:k]
	out := make([]string, 0, k)
	for _, i := range idx {
		out = append(out, pool[i])
	}
	return out
}

// distinctWrong dedups the question's wrong answers and drops any that
// happen to equal the correct one.
func distinctWrong(q Question) []string {
	seen := make(map[string]struct{}, len(q.Wrong))
	out := make([]string, 0, len(q.Wrong))
	for _, w := range q.Wrong {
		if w == q.Correct {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
