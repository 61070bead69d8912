package model_test

import (
	"testing"

	"github.com/cadence-tracker/cadence/internal/model"
)

func TestDetailsRoundTripByKind(t *testing.T) {
	raw, err := model.EncodeDetails(model.StatusChangedDetails{
		Old: model.StatusNew,
		New: model.StatusOnHold,
	})
	if err != nil {
		t.Fatalf("encoding details: %v", err)
	}

	decoded, err := model.DecodeDetails(model.ActionStatusChanged, raw)
	if err != nil {
		t.Fatalf("decoding details: %v", err)
	}

	d, ok := decoded.(model.StatusChangedDetails)
	if !ok {
		t.Fatalf("decoded %T, want StatusChangedDetails", decoded)
	}
	if d.Old != model.StatusNew || d.New != model.StatusOnHold {
		t.Errorf("decoded %+v, want old=new new=on_hold", d)
	}
}

func TestDecodeDetailsCommentVariants(t *testing.T) {
	raw, err := model.EncodeDetails(model.CommentDetails{
		CommentUUID: "c-1",
		Content:     "hello *world*",
	})
	if err != nil {
		t.Fatalf("encoding details: %v", err)
	}

	for _, action := range []model.ActionKind{
		model.ActionCommented, model.ActionCommentEdited, model.ActionCommentDeleted,
	} {
		decoded, err := model.DecodeDetails(action, raw)
		if err != nil {
			t.Fatalf("decoding %s details: %v", action, err)
		}
		d, ok := decoded.(model.CommentDetails)
		if !ok {
			t.Fatalf("decoded %T for %s, want CommentDetails", decoded, action)
		}
		if d.CommentUUID != "c-1" || d.Content != "hello *world*" {
			t.Errorf("decoded %+v for %s", d, action)
		}
	}
}

func TestDecodeDetailsUnknownKindFallsBack(t *testing.T) {
	decoded, err := model.DecodeDetails("archived", `{"reason":"stale"}`)
	if err != nil {
		t.Fatalf("decoding unknown kind: %v", err)
	}

	g, ok := decoded.(model.GenericDetails)
	if !ok {
		t.Fatalf("decoded %T, want GenericDetails", decoded)
	}
	if g.Fields["reason"] != "stale" {
		t.Errorf("generic fields = %v, want reason=stale", g.Fields)
	}
}

func TestDecodeDetailsEmpty(t *testing.T) {
	decoded, err := model.DecodeDetails(model.ActionCreated, "")
	if err != nil {
		t.Fatalf("decoding empty details: %v", err)
	}
	if decoded != nil {
		t.Errorf("decoded %v, want nil", decoded)
	}
}
