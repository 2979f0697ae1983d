package types

// Pair is one exported (identifier, value) entry.
type Pair struct {
	ID    string `json:"identifiercode"`
	Value string `json:"output_value"`
}

// StatusActive is the only row status the composer writes.
const StatusActive = "active"

// UploadRow is the wire shape of a pair in upsert requests and queue batches.
type UploadRow struct {
	IdentifierCode string `json:"identifiercode"`
	OutputValue    string `json:"output_value"`
	Status         string `json:"status"`
}

// UploadRows converts pairs to active upload rows, preserving order.
func UploadRows(pairs []Pair) []UploadRow {
	rows := make([]UploadRow, len(pairs))
	for i, p := range pairs {
		rows[i] = UploadRow{IdentifierCode: p.ID, OutputValue: p.Value, Status: StatusActive}
	}
	return rows
}

// UpsertRequest is the body of POST /stage1/text:upsert.
type UpsertRequest struct {
	Language string      `json:"language"`
	Tenant   *string     `json:"tenant"`
	Reason   string      `json:"reason"`
	Rows     []UploadRow `json:"rows"`
}

// Batch is one record of the local upload queue.
type Batch struct {
	ID       string      `json:"id,omitempty"`
	When     string      `json:"when"`
	SeqKey   string      `json:"seqKey"`
	Language string      `json:"language"`
	Tenant   *string     `json:"tenant"`
	Reason   string      `json:"reason"`
	Rows     []UploadRow `json:"rows"`
}
