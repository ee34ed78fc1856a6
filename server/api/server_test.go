package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bountyboard/bounty-backend/driver"
	"github.com/bountyboard/bounty-backend/metrics"
	"github.com/bountyboard/bounty-backend/types"
)

type fakeReadModel struct {
	bounties    []*types.Bounty
	submissions map[uint64][]*types.Submission
	reputation  uint64
	viewer      string
}

func (f *fakeReadModel) ListBounties(context.Context) ([]*types.Bounty, error) {
	return f.bounties, nil
}

func (f *fakeReadModel) BountyDetails(_ context.Context, id uint64) (*types.Bounty, error) {
	for _, b := range f.bounties {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, types.ErrNotFound.With(nil, "bounty %d not found", id)
}

func (f *fakeReadModel) BountyDetailsFor(ctx context.Context, id uint64, viewer string) (*types.Bounty, error) {
	f.viewer = viewer
	return f.BountyDetails(ctx, id)
}

func (f *fakeReadModel) Submissions(ctx context.Context, id uint64) ([]*types.Submission, error) {
	if _, err := f.BountyDetails(ctx, id); err != nil {
		return nil, err
	}
	return f.submissions[id], nil
}

func (f *fakeReadModel) UserBounties(context.Context, string) ([]*types.Bounty, error) {
	return f.bounties, nil
}

func (f *fakeReadModel) UserSubmissions(context.Context, string) ([]*types.Submission, error) {
	return nil, types.ErrContractCall
}

func (f *fakeReadModel) UserReputation(context.Context, string) (uint64, error) {
	return f.reputation, nil
}

type fakeAnalyzer struct {
	quality   *types.QualityAnalysis
	err       error
	lastReq   types.QualityRequest
	lastDraft types.BountyDraft
}

func (f *fakeAnalyzer) AnalyzeBounty(_ context.Context, draft types.BountyDraft) (*types.BountyAnalysis, error) {
	f.lastDraft = draft
	if f.err != nil {
		return nil, f.err
	}
	return &types.BountyAnalysis{ImprovedDescription: "better " + draft.Description, SuggestedDeadline: "2030-01-01"}, nil
}

func (f *fakeAnalyzer) AnalyzeQuality(_ context.Context, req types.QualityRequest) (*types.QualityAnalysis, error) {
	f.lastReq = req
	if f.err != nil {
		return &types.QualityAnalysis{}, f.err
	}
	return f.quality, nil
}

type fakeStorage struct {
	mu       sync.Mutex
	proofs   map[string]*types.ProofRecord
	analyses []*types.AnalysisRecord
	txs      map[string]*types.TxStatus
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{proofs: map[string]*types.ProofRecord{}, txs: map[string]*types.TxStatus{}}
}

func (f *fakeStorage) InsertProof(_ context.Context, p *types.ProofRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.proofs[p.ContentID]; ok {
		return types.ErrRecordExist
	}
	f.proofs[p.ContentID] = p
	return nil
}

func (f *fakeStorage) Proof(_ context.Context, cid string) (*types.ProofRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.proofs[cid]; ok {
		return p, nil
	}
	return nil, types.ErrNotFound
}

func (f *fakeStorage) ProofsByBounty(_ context.Context, id uint64, _ *types.Pagination) ([]*types.ProofRecord, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.ProofRecord
	for _, p := range f.proofs {
		if p.BountyID == id {
			out = append(out, p)
		}
	}
	return out, uint64(len(out)), nil
}

func (f *fakeStorage) InsertAnalysis(_ context.Context, r *types.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses = append(f.analyses, r)
	return nil
}

func (f *fakeStorage) Analyses(_ context.Context, kind string, _ *types.Pagination) ([]*types.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.AnalysisRecord
	for _, r := range f.analyses {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStorage) RecordTx(_ context.Context, s *types.TxStatus) error {
	f.txs[s.Hash] = s
	return nil
}

func (f *fakeStorage) TxByHash(_ context.Context, hash string) (*types.TxStatus, error) {
	if s, ok := f.txs[hash]; ok {
		return s, nil
	}
	return nil, types.ErrNotFound
}

type fakeBlobStore struct {
	files map[string][]byte
	err   error
}

func (f *fakeBlobStore) UploadFile(_ context.Context, name string, data []byte) (*driver.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := "cid-" + name
	f.files[id] = data
	return &driver.Upload{ContentID: id, URL: f.URL(id)}, nil
}

func (f *fakeBlobStore) UploadJSON(_ context.Context, _ string, v interface{}) (*driver.Upload, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	id := "cid-metadata"
	f.files[id] = data
	return &driver.Upload{ContentID: id, URL: f.URL(id)}, nil
}

func (f *fakeBlobStore) Fetch(_ context.Context, id string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.files[id]
	if !ok {
		return nil, driver.ErrNotFound
	}
	return data, nil
}

func (f *fakeBlobStore) URL(id string) string {
	return driver.GatewayURL("https://gateway.test/ipfs", id)
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testEnv struct {
	srv      *Server
	rm       *fakeReadModel
	analyzer *fakeAnalyzer
	storage  *fakeStorage
	blobs    *fakeBlobStore
}

func newTestEnv() *testEnv {
	env := &testEnv{
		rm: &fakeReadModel{
			bounties: []*types.Bounty{
				{ID: 0, Title: "Design a logo", Requirements: "SVG file", RewardFormatted: "2.0", Reward: "2000000000000000000", Deadline: 4102444800},
				{ID: 1, Title: "Write docs", Requirements: "Markdown", RewardFormatted: "1.0", Reward: "1000000000000000000", Deadline: 1},
			},
			submissions: map[uint64][]*types.Submission{
				1: {{ID: 0, BountyID: 1, ProofHash: "QmA"}, {ID: 2, BountyID: 1, ProofHash: "QmC"}},
			},
			reputation: 12,
		},
		analyzer: &fakeAnalyzer{quality: &types.QualityAnalysis{Score: 80, RewardPercentage: 50}},
		storage:  newFakeStorage(),
		blobs:    &fakeBlobStore{files: map[string][]byte{}},
	}
	env.srv = new(Server).
		SetSecret("secret").
		SetReadModel(env.rm).
		SetAnalyzer(env.analyzer).
		SetStorage(env.storage).
		SetBlobStore(env.blobs).
		SetMetrics(metrics.New())
	return env
}

func (env *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewEcho(env.srv).ServeHTTP(rec, req)
	var body envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPing(t *testing.T) {
	env := newTestEnv()
	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, OK.Code, body.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestBounties_Query(t *testing.T) {
	env := newTestEnv()
	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/bounties?search=docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []*types.Bounty
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Write docs", list[0].Title)
}

func TestBounty(t *testing.T) {
	env := newTestEnv()

	rec, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/bounties/0?viewer=0xabc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0xabc", env.rm.viewer)

	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/bounties/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, NotFound.Code, body.Code)
	assert.Equal(t, "bounty 9 not found", body.Msg)

	rec, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/bounties/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBountySubmissions_BothPrefixes(t *testing.T) {
	env := newTestEnv()
	for _, path := range []string{"/bounties/1/submissions", "/api/v1/bounties/1/submissions"} {
		rec, body := env.do(t, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		var list []*types.Submission
		require.NoError(t, json.Unmarshal(body.Data, &list))
		assert.Len(t, list, 2, path)
	}
}

func TestUserEndpoints(t *testing.T) {
	env := newTestEnv()
	addr := "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"

	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/"+addr+"/reputation", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var rep struct {
		Address    string `json:"address"`
		Reputation uint64 `json:"reputation"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &rep))
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", rep.Address)
	assert.Equal(t, uint64(12), rep.Reputation)

	rec, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/not-an-address/bounties", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/"+addr+"/submissions", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ContractError.Code, body.Code)
}

func TestAnalyzeBounty(t *testing.T) {
	env := newTestEnv()
	rec, body := env.do(t, jsonRequest(http.MethodPost, "/analyze-bounty", `{"title":"Logo","description":"need a logo","rewardAmount":"1.0"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var res types.BountyAnalysis
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, "better need a logo", res.ImprovedDescription)
	require.Len(t, env.storage.analyses, 1)
	assert.Equal(t, types.AnalysisKindBounty, env.storage.analyses[0].Kind)

	rec, _ = env.do(t, jsonRequest(http.MethodPost, "/api/v1/analyze-bounty", `{"rewardAmount":"1.0"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeQuality_FillsFromBounty(t *testing.T) {
	env := newTestEnv()
	rec, body := env.do(t, jsonRequest(http.MethodPost, "/analyze-quality", `{"bountyId":0,"proofHash":"QmProof"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "SVG file", env.analyzer.lastReq.Requirements)
	assert.Equal(t, "2.0", env.analyzer.lastReq.Amount)
	var res types.QualityAnalysis
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, 80, res.Score)

	rec, _ = env.do(t, jsonRequest(http.MethodPost, "/check-quality", `{"bountyId":7,"proofHash":"QmProof"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, jsonRequest(http.MethodPost, "/check-quality", `{"comments":"no proof"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckQuality_ModelFailure(t *testing.T) {
	env := newTestEnv()
	env.analyzer.err = types.ErrExternalService.With(errors.New("timeout"), "language model request failed")

	rec, body := env.do(t, jsonRequest(http.MethodPost, "/check-quality", `{"submission":"text","amount":"1"}`))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ExternalError.Code, body.Code)
	var res types.QualityAnalysis
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, 0, res.Score)
	assert.Empty(t, env.storage.analyses)
}

func TestUploadProof(t *testing.T) {
	env := newTestEnv()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "My proof"))
	require.NoError(t, w.WriteField("bountyId", "1"))
	require.NoError(t, w.WriteField("submitter", "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"))
	require.NoError(t, w.WriteField("description", "Logo in three sizes"))
	require.NoError(t, w.WriteField("links", "https://a.test, https://b.test"))
	fw, err := w.CreateFormFile("files", "shot.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/proofs", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec, body := env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res proofUploadResponse
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, "cid-metadata", res.ContentID)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "cid-shot.png", res.Files[0].ContentID)

	var metadata types.ProofMetadata
	require.NoError(t, json.Unmarshal(env.blobs.files["cid-metadata"], &metadata))
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, metadata.Links)

	record, err := env.storage.Proof(context.Background(), "cid-metadata")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), record.BountyID)
	assert.Equal(t, "Logo in three sizes", record.Description)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, record.Links)

	rec, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/bounties/1/proofs?page=1&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Total uint64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.Equal(t, uint64(1), page.Total)
}

func TestProof_FallsBackToBlobStore(t *testing.T) {
	env := newTestEnv()
	env.blobs.files["QmDoc"] = []byte(`{"title":"t","description":"d","submitter":"0x1","files":[],"links":["https://a.test"]}`)

	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/proofs/QmDoc", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var record types.ProofRecord
	require.NoError(t, json.Unmarshal(body.Data, &record))
	assert.Equal(t, "t", record.Title)
	assert.Equal(t, "https://gateway.test/ipfs/QmDoc", record.URL)
	assert.Equal(t, "d", record.Description)
	assert.Equal(t, []string{"https://a.test"}, record.Links)

	rec, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/proofs/QmMissing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProof_BlobStoreFailure(t *testing.T) {
	env := newTestEnv()
	env.blobs.err = types.ErrExternalService.With(errors.New("status code is 502"), "pinning service request failed")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "My proof"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/proofs", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec, body := env.do(t, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ExternalError.Code, body.Code)

	rec, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/proofs/QmDoc", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, ExternalError.Code, body.Code)
}

func TestServer_ConcurrentRequestsWithoutLogger(t *testing.T) {
	env := newTestEnv()
	e := NewEcho(env.srv)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/proofs/QmMissing", nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		}()
	}
	wg.Wait()
	assert.Nil(t, env.srv.logger)
}

func TestTxByHash(t *testing.T) {
	env := newTestEnv()
	hash := "0x" + strings.Repeat("ab", 32)
	env.storage.txs[hash] = &types.TxStatus{Operation: "createBounty", State: types.TxConfirmed, Hash: hash}

	rec, _ := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/txs/0x1234", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/txs/"+strings.ToUpper(hash), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var status types.TxStatus
	require.NoError(t, json.Unmarshal(body.Data, &status))
	assert.Equal(t, types.TxConfirmed, status.State)
}

func TestUpdateServerStatus_Unauthorized(t *testing.T) {
	env := newTestEnv()
	req := jsonRequest(http.MethodPut, "/api/v1/status", `{"status":"MAINTENANCE"}`)
	req.Header.Set("Authorization", "wrong")
	rec, _ := env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv()
	env.do(t, jsonRequest(http.MethodPost, "/analyze-quality", `{"submission":"x"}`))

	rec := httptest.NewRecorder()
	NewEcho(env.srv).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bounty_analysis_requests_total{kind="quality",outcome="ok"} 1`)
}

func TestErrorResponse(t *testing.T) {
	assert.Equal(t, NotFound.Code, ErrorResponse(driver.ErrNotFound).Code)
	assert.Equal(t, Conflict.Code, ErrorResponse(types.ErrRecordExist).Code)
	assert.Equal(t, InternalServer, ErrorResponse(errors.New("boom")))
	assert.Equal(t, ExternalError.Code, ErrorResponse(types.ErrExternalService.With(errors.New("x"), "gateway fetch failed")).Code)
	res := ErrorResponse(types.ErrWrongNetwork)
	assert.Equal(t, Unavailable.Code, res.Code)
	assert.Equal(t, types.ErrWrongNetwork.Message, res.Msg)
}
