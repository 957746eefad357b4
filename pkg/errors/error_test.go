package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidContractFormat, "contract too short")
	suite.Equal(ErrCodeInvalidContractFormat, err.Code)
	suite.Equal("contract too short", err.Message)
	suite.Nil(err.Cause)
	suite.Equal("[200] contract too short", err.Error())
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeUnknownProductCode, "unknown product code %q", "x")
	suite.Equal(`unknown product code "x"`, err.Message)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeSourceUnavailable, "primary engine unavailable", cause)
	suite.Equal(cause, err.Unwrap())
	suite.Equal("[300] primary engine unavailable: connection refused", err.Error())
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("deadline exceeded")
	err := Wrapf(ErrCodeSourceTimeout, cause, "sub-window %d timed out", 3)
	suite.Equal("sub-window 3 timed out", err.Message)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	inner := New(ErrCodeQueryFailed, "query failed")
	wrapped := fmt.Errorf("fetch: %w", inner)
	suite.Equal(ErrCodeQueryFailed, GetCode(wrapped))
	suite.True(HasCode(wrapped, ErrCodeQueryFailed))
	suite.False(HasCode(wrapped, ErrCodeSourceUnavailable))
}

func (suite *ErrorTestSuite) TestGetCodeFromStandardError() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
	suite.Equal(ErrCodeUnknown, GetCode(nil))
}

func (suite *ErrorTestSuite) TestGetCodeOr() {
	suite.Equal(ErrCodeSourceTimeout, GetCodeOr(New(ErrCodeSourceTimeout, "slow"), ErrCodeSourceUnavailable))
	suite.Equal(ErrCodeSourceUnavailable, GetCodeOr(errors.New("plain"), ErrCodeSourceUnavailable))
}

func (suite *ErrorTestSuite) TestAs() {
	var target *Error
	err := fmt.Errorf("outer: %w", New(ErrCodeMergeSkipped, "skipped"))
	suite.True(As(err, &target))
	suite.Equal(ErrCodeMergeSkipped, target.Code)
}

func (suite *ErrorTestSuite) TestProductCodeAlias() {
	err := New(ErrCodeInvalidProductCode, "bad product")
	suite.True(HasCode(err, ErrCodeUnknownProductCode))
	suite.Equal("UnknownProductCode", err.Code.String())
}

func (suite *ErrorTestSuite) TestToInfo() {
	info := ToInfo(Wrap(ErrCodeSourceUnavailable, "synthetic engine down", errors.New("eof")))
	suite.Equal(ErrCodeSourceUnavailable, info.Code)
	suite.Equal("SourceUnavailable", info.Name)
	suite.Equal("[300] synthetic engine down: eof", info.Message)

	suite.Equal(Info{}, ToInfo(nil))
}

func (suite *ErrorTestSuite) TestUnknownCodeString() {
	suite.Equal("Unknown", ErrorCode(9999).String())
}
