package flows

import (
	"errors"
	"strconv"

	"github.com/MrEthical07/taskauth/jwt"
)

// IssueFailureKind classifies pair issuance failures.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureSubject
	IssueFailureEncodeAccess
	IssueFailureEncodeRefresh
)

// IssueResult carries the minted pair or failure metadata.
type IssueResult struct {
	Failure      IssueFailureKind
	Err          error
	AccessToken  string
	RefreshToken string
}

// IssueDeps captures pair issuance dependencies.
type IssueDeps struct {
	Encode EncodeFunc
}

var errNonPositiveSubject = errors.New("subject id must be positive")

// RunIssuePair mints an access and a refresh credential for the same subject.
func RunIssuePair(subjectID int64, deps IssueDeps) IssueResult {
	if subjectID <= 0 {
		return IssueResult{Failure: IssueFailureSubject, Err: errNonPositiveSubject}
	}
	subject := strconv.FormatInt(subjectID, 10)

	access, err := deps.Encode(subject, jwt.KindAccess)
	if err != nil {
		return IssueResult{Failure: IssueFailureEncodeAccess, Err: err}
	}
	refresh, err := deps.Encode(subject, jwt.KindRefresh)
	if err != nil {
		return IssueResult{Failure: IssueFailureEncodeRefresh, Err: err}
	}

	return IssueResult{AccessToken: access, RefreshToken: refresh}
}
