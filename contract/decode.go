package contract

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bountyboard/bounty-backend/types"
)

var ErrDecode = errors.New("malformed contract result")

// DecodeError names the method and field whose value did not match the expected shape.
type DecodeError struct {
	Method string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Method, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(method, field string, err error) error {
	return &DecodeError{Method: method, Field: field, Err: err}
}

// decoder reads positional outputs and keeps the first error it meets.
type decoder struct {
	method string
	out    []interface{}
	err    error
}

func newDecoder(method string, out []interface{}) *decoder {
	return &decoder{method: method, out: out}
}

func (d *decoder) value(i int, field string) interface{} {
	if d.err != nil {
		return nil
	}
	if i >= len(d.out) {
		d.err = decodeErr(d.method, field, fmt.Errorf("missing output %d", i))
		return nil
	}
	return d.out[i]
}

func (d *decoder) fail(field string, v interface{}, want string) {
	d.err = decodeErr(d.method, field, fmt.Errorf("got %T, want %s", v, want))
}

func (d *decoder) bigInt(i int, field string) *big.Int {
	v := d.value(i, field)
	if d.err != nil {
		return nil
	}
	b, ok := v.(*big.Int)
	if !ok || b == nil {
		d.fail(field, v, "uint256")
		return nil
	}
	if b.Sign() < 0 {
		d.err = decodeErr(d.method, field, errors.New("negative value"))
		return nil
	}
	return b
}

func (d *decoder) uint64(i int, field string) uint64 {
	b := d.bigInt(i, field)
	if d.err != nil {
		return 0
	}
	if !b.IsUint64() {
		d.err = decodeErr(d.method, field, errors.New("value overflows uint64"))
		return 0
	}
	return b.Uint64()
}

func (d *decoder) int64(i int, field string) int64 {
	v := d.uint64(i, field)
	if d.err != nil {
		return 0
	}
	if v > uint64(1<<63-1) {
		d.err = decodeErr(d.method, field, errors.New("value overflows int64"))
		return 0
	}
	return int64(v)
}

func (d *decoder) uint64s(i int, field string) []uint64 {
	v := d.value(i, field)
	if d.err != nil {
		return nil
	}
	list, ok := v.([]*big.Int)
	if !ok {
		d.fail(field, v, "uint256[]")
		return nil
	}
	res := make([]uint64, 0, len(list))
	for _, b := range list {
		if b == nil || b.Sign() < 0 || !b.IsUint64() {
			d.err = decodeErr(d.method, field, errors.New("element out of range"))
			return nil
		}
		res = append(res, b.Uint64())
	}
	return res
}

func (d *decoder) address(i int, field string) string {
	v := d.value(i, field)
	if d.err != nil {
		return ""
	}
	a, ok := v.(common.Address)
	if !ok {
		d.fail(field, v, "address")
		return ""
	}
	return a.Hex()
}

func (d *decoder) string(i int, field string) string {
	v := d.value(i, field)
	if d.err != nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(field, v, "string")
		return ""
	}
	return s
}

func (d *decoder) bool(i int, field string) bool {
	v := d.value(i, field)
	if d.err != nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(field, v, "bool")
		return false
	}
	return b
}

func (d *decoder) uint8(i int, field string) uint8 {
	v := d.value(i, field)
	if d.err != nil {
		return 0
	}
	b, ok := v.(uint8)
	if !ok {
		d.fail(field, v, "uint8")
		return 0
	}
	return b
}

func (d *decoder) result() error {
	return d.err
}

var zeroAddress = common.Address{}.Hex()

func decodeBounty(out []interface{}) (*types.Bounty, error) {
	d := newDecoder(MethodGetBounty, out)
	b := &types.Bounty{
		ID:           d.uint64(0, "id"),
		Creator:      d.address(1, "creator"),
		Title:        d.string(2, "title"),
		Description:  d.string(3, "description"),
		Requirements: d.string(4, "requirements"),
	}
	if reward := d.bigInt(5, "reward"); reward != nil {
		b.Reward = reward.String()
	}
	b.RewardToken = d.address(6, "rewardToken")
	b.Deadline = d.int64(7, "deadline")
	b.Completed = d.bool(8, "completed")
	b.WinnerCount = d.uint64(9, "winnerCount")
	b.SubmissionCount = d.uint64(10, "submissionCount")
	b.Status = types.BountyStatus(d.uint8(11, "status"))
	winner := d.address(12, "winner")
	if err := d.result(); err != nil {
		return nil, err
	}
	if !b.Status.Valid() {
		return nil, decodeErr(MethodGetBounty, "status", fmt.Errorf("unknown status %d", b.Status))
	}
	if winner != zeroAddress {
		b.Winner = winner
	}
	return b, nil
}

func decodeSubmission(bountyID, index uint64, out []interface{}) (*types.Submission, error) {
	d := newDecoder(MethodGetSubmission, out)
	s := &types.Submission{
		ID:        index,
		BountyID:  bountyID,
		Submitter: d.address(0, "submitter"),
		ProofHash: d.string(1, "proofHash"),
		Timestamp: d.int64(2, "timestamp"),
	}
	s.ApproveCount = d.uint64(3, "approveCount")
	s.RejectCount = d.uint64(4, "rejectCount")
	s.Approved = d.bool(5, "approved")
	s.IsWinner = d.bool(6, "isWinner")
	if reward := d.bigInt(7, "reward"); reward != nil {
		s.Reward = reward.String()
	}
	if err := d.result(); err != nil {
		return nil, err
	}
	s.Status = s.DerivedStatus()
	return s, nil
}
