package service

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrFolderNotFound  = errors.New("folder not found")
	ErrBoardNotFound   = errors.New("board not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrFollowNotFound  = errors.New("follow not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrJobNotFound     = errors.New("refresh job not found")

	ErrAlreadyCopied      = errors.New("already copied")
	ErrBoardNotShared     = errors.New("board is not shared")
	ErrNoActivePlan       = errors.New("an active plan is required")
	ErrUsageLimitReached  = errors.New("monthly usage limit reached")
	ErrFollowLimitReached = errors.New("follow limit reached for your plan")

	ErrPlanNotPurchasable = errors.New("plan is not available for purchase")
	ErrNoBillingAccount   = errors.New("no billing account for this user")
	ErrSessionMismatch    = errors.New("checkout session does not belong to this user")

	ErrInvalidImageURL = errors.New("image url is not allowed")
	ErrNotAnImage      = errors.New("upstream response is not an image")
	ErrImageTooLarge   = errors.New("image exceeds the size limit")
	ErrUpstream        = errors.New("upstream request failed")
)
