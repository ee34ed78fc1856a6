package types

type ProofFile struct {
	Name      string `json:"name" bson:"name"`
	ContentID string `json:"cid" bson:"cid"`
	URL       string `json:"url" bson:"url"`
}

// ProofMetadata is the document pinned to the blob store for a submission.
type ProofMetadata struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Submitter   string      `json:"submitter"`
	Timestamp   int64       `json:"timestamp"`
	Files       []ProofFile `json:"files"`
	Links       []string    `json:"links"`
}

// ProofRecord indexes an uploaded proof document. One record per content id.
type ProofRecord struct {
	ContentID   string      `json:"cid" bson:"cid"`
	URL         string      `json:"url" bson:"url"`
	BountyID    uint64      `json:"bountyId" bson:"bountyId"`
	Submitter   string      `json:"submitter" bson:"submitter"`
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description" bson:"description"`
	Files       []ProofFile `json:"files" bson:"files"`
	Links       []string    `json:"links" bson:"links"`
	CreatedAt   int64       `json:"createdAt" bson:"createdAt"`
}
