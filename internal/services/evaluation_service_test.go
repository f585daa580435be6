package services

import (
	"context"
	"errors"
	"testing"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

func newTestEvaluationService(repo *mockRepository) EvaluationService {
	logger := testLogger()
	activity := NewActivityService(repo, nil, logger)
	return NewEvaluationService(repo, validator.New(), activity, logger)
}

func closedClassWith(roster ...string) *models.ClassSession {
	class := openClass("123456", 10)
	class.Status = models.ClassClosed
	class.SetRoster(roster)
	return class
}

func validEvaluation() *SubmitEvaluationRequest {
	return &SubmitEvaluationRequest{
		ClassID:       "123456",
		ScoreContent:  5,
		ScoreMaterial: 4,
		ScoreDuration: 4,
		ScoreFormat:   5,
		ScoreSpeaker:  5,
	}
}

func TestEvaluationSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts one evaluation per user", func(t *testing.T) {
		repo := newMockRepository()
		repo.addClass(closedClassWith("a@library.test"))
		svc := newTestEvaluationService(repo)
		actor := identityFor("a@library.test")

		if err := svc.Submit(ctx, validEvaluation(), actor); err != nil {
			t.Fatalf("first Submit = %v, want nil", err)
		}
		if err := svc.Submit(ctx, validEvaluation(), actor); !errors.Is(err, ErrEvaluationExists) {
			t.Fatalf("second Submit = %v, want ErrEvaluationExists", err)
		}
	})

	t.Run("rejects open class", func(t *testing.T) {
		repo := newMockRepository()
		class := openClass("123456", 10)
		class.SetRoster([]string{"a@library.test"})
		repo.addClass(class)
		svc := newTestEvaluationService(repo)

		err := svc.Submit(ctx, validEvaluation(), identityFor("a@library.test"))
		if !errors.Is(err, ErrEvaluationNotClosed) {
			t.Fatalf("Submit on open class = %v, want ErrEvaluationNotClosed", err)
		}
	})

	t.Run("rejects non-registrant", func(t *testing.T) {
		repo := newMockRepository()
		repo.addClass(closedClassWith("someone-else@library.test"))
		svc := newTestEvaluationService(repo)

		err := svc.Submit(ctx, validEvaluation(), identityFor("a@library.test"))
		if !errors.Is(err, ErrNotRegistered) {
			t.Fatalf("Submit by non-registrant = %v, want ErrNotRegistered", err)
		}
	})

	t.Run("rejects out of range score", func(t *testing.T) {
		repo := newMockRepository()
		repo.addClass(closedClassWith("a@library.test"))
		svc := newTestEvaluationService(repo)

		req := validEvaluation()
		req.ScoreContent = 6
		if err := svc.Submit(ctx, req, identityFor("a@library.test")); err == nil {
			t.Fatal("Submit with score 6 = nil, want error")
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestEvaluationService(repo)

		err := svc.Submit(ctx, validEvaluation(), identityFor("a@library.test"))
		if !errors.Is(err, ErrClassNotFound) {
			t.Fatalf("Submit for unknown class = %v, want ErrClassNotFound", err)
		}
	})
}

func TestEvaluationSummary(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.addClass(closedClassWith("a@library.test", "b@library.test"))
	userA := &models.User{ID: 1, Name: "Alice", Email: "a@library.test", IsActive: true}
	userA.SetRoles([]string{"researcher"})
	repo.addUser(userA)
	svc := newTestEvaluationService(repo)

	comment := "More hands-on time please"
	req := validEvaluation()
	req.Comment = &comment
	if err := svc.Submit(ctx, req, identityFor("a@library.test")); err != nil {
		t.Fatalf("Submit = %v, want nil", err)
	}
	if err := svc.Submit(ctx, validEvaluation(), identityFor("b@library.test")); err != nil {
		t.Fatalf("Submit = %v, want nil", err)
	}

	summary, err := svc.SummaryByClass(ctx, "123456")
	if err != nil {
		t.Fatalf("SummaryByClass = %v, want nil", err)
	}
	if len(summary.Evaluations) != 2 {
		t.Fatalf("evaluation count = %d, want 2", len(summary.Evaluations))
	}
	if summary.Evaluations[0].Name != "Alice" {
		t.Errorf("first evaluator name = %q, want Alice", summary.Evaluations[0].Name)
	}
	if len(summary.Suggestions) != 1 || summary.Suggestions[0] != comment {
		t.Errorf("suggestions = %v, want the one comment", summary.Suggestions)
	}
}

func TestEvaluatedClassIDs(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.addClass(closedClassWith("a@library.test"))
	svc := newTestEvaluationService(repo)

	if err := svc.Submit(ctx, validEvaluation(), identityFor("a@library.test")); err != nil {
		t.Fatalf("Submit = %v, want nil", err)
	}
	ids, err := svc.EvaluatedClassIDs(ctx, "a@library.test")
	if err != nil {
		t.Fatalf("EvaluatedClassIDs = %v, want nil", err)
	}
	if len(ids) != 1 || ids[0] != "123456" {
		t.Fatalf("ids = %v, want [123456]", ids)
	}

	// validator DTO sanity: len tag on the class id
	v := validator.New()
	bad := validEvaluation()
	bad.ClassID = "12345"
	if err := v.Validate(bad); err == nil {
		t.Fatal("Validate with 5-digit class id = nil, want error")
	}
}
