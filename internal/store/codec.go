package store

import (
	"database/sql"
	"encoding/json"

	"github.com/eldtechnologies/roomboard/internal/models"
)

// messageColumns is the select list shared by the SQL stores.
const messageColumns = `id, room_id, text, file_url, file_name, file_type, anonymous_id, ts, parent_id, reply_snapshot`

// bodyColumns splits a message body into nullable text and attachment columns.
func bodyColumns(msg *models.Message) (text, fileURL, fileName, fileType *string) {
	if msg.File != nil {
		return nil, &msg.File.URL, &msg.File.Name, &msg.File.Type
	}
	return &msg.Text, nil, nil, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func encodeSnapshot(s *models.ReplySnapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// messageRow is the scan target for a message row.
type messageRow struct {
	id          string
	roomID      string
	text        sql.NullString
	fileURL     sql.NullString
	fileName    sql.NullString
	fileType    sql.NullString
	anonymousID sql.NullString
	parentID    sql.NullString
	snapshot    []byte
}

func (r *messageRow) toMessage() (models.Message, error) {
	msg := models.Message{
		ID:          r.id,
		RoomID:      r.roomID,
		Text:        r.text.String,
		AnonymousID: r.anonymousID.String,
		ParentID:    r.parentID.String,
	}
	if r.fileURL.Valid {
		msg.File = &models.Attachment{
			URL:  r.fileURL.String,
			Name: r.fileName.String,
			Type: r.fileType.String,
		}
	}
	if len(r.snapshot) > 0 {
		var snap models.ReplySnapshot
		if err := json.Unmarshal(r.snapshot, &snap); err != nil {
			return models.Message{}, err
		}
		msg.Reply = &snap
	}
	return msg, nil
}
