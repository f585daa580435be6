package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/HSL-KM/class-registration-service/internal/models"
	"github.com/HSL-KM/class-registration-service/internal/validator"
)

func newTestClassService(repo *mockRepository) ClassService {
	logger := testLogger()
	activity := NewActivityService(repo, nil, logger)
	return NewClassService(repo, validator.New(), activity, logger)
}

func adminIdentity() Identity {
	id := uint(1)
	return Identity{
		UserID:     &id,
		Name:       "Admin",
		Email:      "admin@library.test",
		Roles:      []string{models.RoleAdmin},
		AdminLevel: 3,
	}
}

func validCreateRequest() *CreateClassRequest {
	return &CreateClassRequest{
		Title:           "Citation Management with Zotero",
		Speaker:         []string{"Dr. Example"},
		StartDate:       "2026-09-10",
		EndDate:         "2026-09-10",
		StartTime:       "13:00",
		EndTime:         "15:00",
		Format:          models.FormatOnline,
		MaxParticipants: 30,
	}
}

func TestClassCreate(t *testing.T) {
	ctx := context.Background()
	classIDFormat := regexp.MustCompile(`^\d{6}$`)

	t.Run("assigns unique six digit ids", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestClassService(repo)

		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			class, err := svc.Create(ctx, validCreateRequest(), adminIdentity())
			if err != nil {
				t.Fatalf("Create #%d = %v, want nil", i, err)
			}
			if !classIDFormat.MatchString(class.ClassID) {
				t.Fatalf("class id %q is not six digits", class.ClassID)
			}
			if seen[class.ClassID] {
				t.Fatalf("class id %q assigned twice", class.ClassID)
			}
			seen[class.ClassID] = true
			if class.Status != models.ClassOpen {
				t.Fatalf("new class status = %s, want open", class.Status)
			}
			if len(class.Roster()) != 0 {
				t.Fatalf("new class roster size = %d, want 0", len(class.Roster()))
			}
		}
	})

	t.Run("rejects end before start", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestClassService(repo)

		req := validCreateRequest()
		req.StartDate = "2026-09-10"
		req.EndDate = "2026-09-09"
		if _, err := svc.Create(ctx, req, adminIdentity()); err == nil {
			t.Fatal("Create with end before start = nil, want error")
		}
	})

	t.Run("rejects same day end time before start time", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestClassService(repo)

		req := validCreateRequest()
		req.StartTime = "15:00"
		req.EndTime = "13:00"
		if _, err := svc.Create(ctx, req, adminIdentity()); err == nil {
			t.Fatal("Create with end time before start time = nil, want error")
		}
	})

	t.Run("rejects missing speaker", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestClassService(repo)

		req := validCreateRequest()
		req.Speaker = nil
		if _, err := svc.Create(ctx, req, adminIdentity()); err == nil {
			t.Fatal("Create without speaker = nil, want error")
		}
	})
}

func TestClassClose(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.addClass(openClass("123456", 10))
	svc := newTestClassService(repo)

	video := "https://videos.library.test/123456"
	err := svc.Close(ctx, "123456", &CloseClassRequest{VideoLink: &video}, adminIdentity())
	if err != nil {
		t.Fatalf("Close = %v, want nil", err)
	}

	class, err := svc.GetByClassID(ctx, "123456")
	if err != nil {
		t.Fatalf("GetByClassID = %v, want nil", err)
	}
	if class.Status != models.ClassClosed {
		t.Errorf("status = %s, want closed", class.Status)
	}
	if class.VideoLink == nil || *class.VideoLink != video {
		t.Errorf("video link = %v, want %s", class.VideoLink, video)
	}
}

func TestClassDelete(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	repo.addClass(openClass("123456", 10))
	svc := newTestClassService(repo)

	if err := svc.Delete(ctx, "123456", adminIdentity()); err != nil {
		t.Fatalf("Delete = %v, want nil", err)
	}
	if _, err := svc.GetByClassID(ctx, "123456"); !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("GetByClassID after delete = %v, want ErrClassNotFound", err)
	}
	if err := svc.Delete(ctx, "123456", adminIdentity()); !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("second Delete = %v, want ErrClassNotFound", err)
	}
}

func TestClassRegistrants(t *testing.T) {
	ctx := context.Background()

	repo := newMockRepository()
	class := openClass("123456", 10)
	class.SetRoster([]string{"a@library.test", "ghost@library.test"})
	repo.addClass(class)
	known := &models.User{ID: 2, Name: "Known User", Email: "a@library.test", IsActive: true}
	known.SetRoles([]string{"researcher"})
	repo.addUser(known)
	svc := newTestClassService(repo)

	registrants, err := svc.Registrants(ctx, "123456")
	if err != nil {
		t.Fatalf("Registrants = %v, want nil", err)
	}
	if len(registrants) != 2 {
		t.Fatalf("registrant count = %d, want 2", len(registrants))
	}
	if registrants[0].Name != "Known User" {
		t.Errorf("first registrant name = %q, want Known User", registrants[0].Name)
	}
	// Emails without a profile still appear on the roster.
	if registrants[1].Email != "ghost@library.test" || registrants[1].Name != "" {
		t.Errorf("second registrant = %+v, want bare email entry", registrants[1])
	}
}
