package services

import (
	"context"
	"sync"
	"testing"

	"askhub/internal/models"

	"github.com/google/uuid"
)

func countQuestionVotes(t *testing.T, e *testEnv, qid, uid uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&models.QuestionVote{}).Where("question_id = ? AND user_id = ?", qid, uid).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func TestVoteQuestionInsertAndCancel(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.user(t, "author@example.com")
	voter := e.user(t, "voter@example.com")
	q := e.question(t, author)

	got, err := e.votes.VoteQuestion(ctx, q.ID, voter.ID, models.VoteUp)
	if err != nil {
		t.Fatal(err)
	}
	if got.VoteCount != 1 {
		t.Fatalf("expected vote count 1, got %d", got.VoteCount)
	}

	got, err = e.votes.VoteQuestion(ctx, q.ID, voter.ID, models.VoteUp)
	if err != nil {
		t.Fatal(err)
	}
	if got.VoteCount != 0 {
		t.Fatalf("repeating a vote should cancel it, got count %d", got.VoteCount)
	}
	if n := countQuestionVotes(t, e, q.ID, voter.ID); n != 0 {
		t.Fatalf("expected no vote rows after cancel, got %d", n)
	}
}

func TestVoteAnswerFlip(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.user(t, "author@example.com")
	voter := e.user(t, "voter@example.com")
	a := e.answer(t, e.question(t, author), author)

	up, err := e.votes.VoteAnswer(ctx, a.ID, voter.ID, models.VoteUp)
	if err != nil {
		t.Fatal(err)
	}
	down, err := e.votes.VoteAnswer(ctx, a.ID, voter.ID, models.VoteDown)
	if err != nil {
		t.Fatal(err)
	}
	if down.VoteCount-up.VoteCount != -2 {
		t.Fatalf("flip should move the count by -2, went %d -> %d", up.VoteCount, down.VoteCount)
	}
	if down.VoteCount != -1 {
		t.Fatalf("expected -1 relative to no votes, got %d", down.VoteCount)
	}

	v, err := e.votes.GetUserVote(ctx, models.TargetAnswer, a.ID, voter.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v != models.VoteDown {
		t.Fatalf("expected stored vote -1, got %d", v)
	}
}

func TestVoteCountMatchesRows(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.user(t, "author@example.com")
	q := e.question(t, author)
	voters := []*models.User{e.user(t, "a@example.com"), e.user(t, "b@example.com"), e.user(t, "c@example.com")}

	seq := []int{1, -1, -1, 1, 1, -1, 1, 1}
	for i, v := range seq {
		if _, err := e.votes.VoteQuestion(ctx, q.ID, voters[i%len(voters)].ID, v); err != nil {
			t.Fatal(err)
		}
	}

	var sum struct{ Total int }
	e.db.Model(&models.QuestionVote{}).Select("COALESCE(SUM(value), 0) AS total").Where("question_id = ?", q.ID).Scan(&sum)
	var stored models.Question
	e.db.Where("id = ?", q.ID).Take(&stored)
	if stored.VoteCount != sum.Total {
		t.Fatalf("vote_count %d does not match sum of rows %d", stored.VoteCount, sum.Total)
	}
	for _, u := range voters {
		if n := countQuestionVotes(t, e, q.ID, u.ID); n > 1 {
			t.Fatalf("user %s has %d vote rows", u.Email, n)
		}
	}
}

func TestVoteConcurrent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.user(t, "author@example.com")
	q := e.question(t, author)

	const n = 10
	voters := make([]*models.User, n)
	for i := range voters {
		voters[i] = e.user(t, uuid.NewString()+"@example.com")
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, u := range voters {
		wg.Add(1)
		go func(uid uuid.UUID) {
			defer wg.Done()
			if _, err := e.votes.VoteQuestion(ctx, q.ID, uid, models.VoteUp); err != nil {
				errs <- err
			}
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	var stored models.Question
	e.db.Where("id = ?", q.ID).Take(&stored)
	if stored.VoteCount != n {
		t.Fatalf("expected %d votes, got %d", n, stored.VoteCount)
	}
}

func TestVoteConcurrentSameUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.user(t, "author@example.com")
	voter := e.user(t, "voter@example.com")
	q := e.question(t, author)

	const n = 21
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		value := models.VoteUp
		if i%2 == 1 {
			value = models.VoteDown
		}
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if _, err := e.votes.VoteQuestion(ctx, q.ID, voter.ID, v); err != nil {
				errs <- err
			}
		}(value)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	if rows := countQuestionVotes(t, e, q.ID, voter.ID); rows > 1 {
		t.Fatalf("voter has %d vote rows", rows)
	}
	var sum struct{ Total int }
	e.db.Model(&models.QuestionVote{}).Select("COALESCE(SUM(value), 0) AS total").Where("question_id = ?", q.ID).Scan(&sum)
	var stored models.Question
	e.db.Where("id = ?", q.ID).Take(&stored)
	if stored.VoteCount != sum.Total {
		t.Fatalf("vote_count %d does not match sum of rows %d", stored.VoteCount, sum.Total)
	}
}

func TestVoteErrors(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.user(t, "u@example.com")
	q := e.question(t, u)

	_, err := e.votes.VoteQuestion(ctx, uuid.New(), u.ID, models.VoteUp)
	expectKind(t, err, KindNotFound)

	_, err = e.votes.VoteQuestion(ctx, q.ID, u.ID, 2)
	expectKind(t, err, KindInvalidInput)

	v, err := e.votes.GetUserVote(ctx, models.TargetQuestion, q.ID, u.ID)
	if err != nil || v != 0 {
		t.Fatalf("expected no vote, got %d %v", v, err)
	}
}
