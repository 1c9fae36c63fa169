package store

import (
	"context"

	"github.com/localnerve/bibliodb/internal/models"
	"gorm.io/gorm/clause"
)

// Categories is the category tree
type Categories struct {
	*Table[models.Category]
}

// Children returns the direct children of a category
func (c *Categories) Children(ctx context.Context, id uint64) ([]models.Category, error) {
	if _, err := c.Get(ctx, id); err != nil {
		return nil, err
	}
	return c.childrenOf(ctx, []uint64{id})
}

// Subtree returns a category followed by all of its descendants, level by level.
// A category reached twice is returned once, so a cycle cannot loop.
func (c *Categories) Subtree(ctx context.Context, id uint64) ([]models.Category, error) {
	root, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	tree := []models.Category{*root}
	seen := map[uint64]bool{root.ID: true}
	frontier := []uint64{root.ID}

	for len(frontier) > 0 {
		level, err := c.childrenOf(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, child := range level {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			tree = append(tree, child)
			frontier = append(frontier, child.ID)
		}
	}

	return tree, nil
}

// Ancestors returns the parents of a category, nearest first, up to the root
func (c *Categories) Ancestors(ctx context.Context, id uint64) ([]models.Category, error) {
	node, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var path []models.Category
	seen := map[uint64]bool{node.ID: true}
	for node.ParentID != nil && !seen[*node.ParentID] {
		seen[*node.ParentID] = true
		if node, err = c.Get(ctx, *node.ParentID); err != nil {
			return nil, err
		}
		path = append(path, *node)
	}

	return path, nil
}

func (c *Categories) childrenOf(ctx context.Context, ids []uint64) ([]models.Category, error) {
	var children []models.Category
	for _, batch := range batches(ids) {
		var found []models.Category
		err := c.s.db.WithContext(ctx).
			Where(in("parent_categorie_id", batch)).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
			Find(&found).Error
		if err != nil {
			return nil, classify(c.table, err)
		}
		children = append(children, found...)
	}
	return children, nil
}
