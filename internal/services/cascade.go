package services

import (
	"context"
	"errors"

	"comicnest/internal/apperr"

	"gorm.io/gorm"
)

type DeleteResult struct {
	Deleted   int64 `json:"deleted"`
	ChapterID uint  `json:"-"`
}

// CascadeDeleter removes a comment together with every reply below it.
//
// Only the target's author may delete it; replies go with the thread whoever wrote them.
// All steps run in one transaction, in this order:
//  1. collect the target and all descendants
//  2. delete those rows (and their reactions)
//  3. drop the ids from each distinct author's reference list
//  4. move the chapter/comic counters by the number of rows actually removed
//
// Step 4 uses the affected-row count, so overlapping concurrent deletes never
// decrement twice for the same comment.
type CascadeDeleter struct {
	db *gorm.DB
}

func NewCascadeDeleter(db *gorm.DB) *CascadeDeleter {
	return &CascadeDeleter{db: db}
}

func (d *CascadeDeleter) Delete(ctx context.Context, commentID, requesterID uint) (*DeleteResult, error) {
	result := &DeleteResult{}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := NewCommentStore(tx)

		target, err := store.Get(ctx, commentID)
		if err != nil {
			return err
		}
		if target.UserID != requesterID {
			return apperr.Forbidden("Comment not yours")
		}
		result.ChapterID = target.ChapterID

		descendants, err := store.Descendants(ctx, target.ID)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(descendants)+1)
		ids = append(ids, target.ID)
		authorSeen := map[uint]bool{target.UserID: true}
		authors := []uint{target.UserID}
		for _, c := range descendants {
			ids = append(ids, c.ID)
			if !authorSeen[c.UserID] {
				authorSeen[c.UserID] = true
				authors = append(authors, c.UserID)
			}
		}

		deleted, err := store.DeleteMany(ctx, ids)
		if err != nil {
			return err
		}
		result.Deleted = deleted
		if deleted == 0 {
			return nil
		}

		if _, err := NewUserDirectory(tx).RemoveCommentRefs(ctx, authors, ids); err != nil {
			return err
		}

		chapters := NewChapterDirectory(tx)
		chapter, err := chapters.Get(ctx, target.ChapterID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil
			}
			return err
		}
		return chapters.AdjustCommentCount(ctx, chapter, -int(deleted))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
