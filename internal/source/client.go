package source

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Client reads from the upstream conversation store. All list calls page by
// limit/offset ordered by id so a resumed run sees a stable order, and filter
// incrementally on the row timestamp when since is non-nil.
type Client struct {
	db *gorm.DB
}

func NewClient(db *gorm.DB) *Client {
	return &Client{db: db}
}

func (c *Client) Users(ctx context.Context, since *time.Time, limit, offset int) ([]UserRow, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}
	query := c.db.WithContext(ctx).Model(&UserRow{})
	if since != nil {
		query = query.Where("updated_at > ?", *since)
	}
	var rows []UserRow
	if err := query.Order("id asc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) Leads(ctx context.Context, tenantID int64, since *time.Time, limit, offset int) ([]LeadRow, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}
	query := c.db.WithContext(ctx).Model(&LeadRow{}).Where("tenant_id = ?", tenantID)
	if since != nil {
		query = query.Where("updated_at > ?", *since)
	}
	var rows []LeadRow
	if err := query.Order("id asc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) Conversations(ctx context.Context, tenantID int64, since *time.Time, limit, offset int) ([]ConversationRow, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}
	query := c.db.WithContext(ctx).Model(&ConversationRow{}).Where("tenant_id = ?", tenantID)
	if since != nil {
		query = query.Where("updated_at > ?", *since)
	}
	var rows []ConversationRow
	if err := query.Order("id asc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Messages filters on created_at: the upstream store never updates a message
// row after insert, and created_at is indexed there while updated_at is not.
func (c *Client) Messages(ctx context.Context, tenantID int64, since *time.Time, limit, offset int) ([]MessageRow, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}
	query := c.db.WithContext(ctx).Model(&MessageRow{}).Where("tenant_id = ?", tenantID)
	if since != nil {
		query = query.Where("created_at > ?", *since)
	}
	var rows []MessageRow
	if err := query.Order("id asc").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
