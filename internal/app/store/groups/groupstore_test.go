package groupstore_test

import (
	"testing"

	groupstore "github.com/dalemusser/gametable/internal/app/store/groups"
	"github.com/dalemusser/gametable/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != groupstore.ErrGroupNotFound {
		t.Errorf("GetByID: got %v, want ErrGroupNotFound", err)
	}
}

func TestStore_ListForUser_OrganizerAndMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	organizer := fixtures.CreateOrganizer(ctx, "Alena Novak", "alena@example.com")
	member := fixtures.CreateMember(ctx, "Bedrich Maly", "bedrich@example.com")
	outsider := fixtures.CreateMember(ctx, "Cyril Vesely", "cyril@example.com")

	runs := fixtures.CreateGroup(ctx, "Friday Runs", organizer.ID, []primitive.ObjectID{member.ID}, "Friday")
	fixtures.CreateGroup(ctx, "Solo Table", outsider.ID, nil)

	// Organizer sees the group they run.
	groups, err := store.ListForUser(ctx, organizer.ID)
	if err != nil {
		t.Fatalf("ListForUser(organizer) failed: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != runs.ID {
		t.Errorf("organizer groups: %+v", groups)
	}

	// Member sees the same group through member_ids.
	groups, err = store.ListForUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("ListForUser(member) failed: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != runs.ID {
		t.Errorf("member groups: %+v", groups)
	}
}

func TestStore_MemberGroupIDsForUser_ExcludesOrganizerOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateMember(ctx, "Dana Kral", "dana@example.com")

	asMember := fixtures.CreateGroup(ctx, "Member Here", primitive.NewObjectID(), []primitive.ObjectID{user.ID})
	fixtures.CreateGroup(ctx, "Organizer Here", user.ID, nil)

	ids, err := store.MemberGroupIDsForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("MemberGroupIDsForUser failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != asMember.ID {
		t.Errorf("member group IDs: %v, want only %v", ids, asMember.ID)
	}
}
