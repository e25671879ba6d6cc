package service

// Upstream endpoint paths and fixed form values. These are the private web
// API's contract; the client owns none of them.
const (
	pathIdentifyUser         = "/api/login/identifyUser"
	pathChallengeSMS         = "/api/credential/challengeSms"
	pathChallengeEmail       = "/api/credential/challengeEmail"
	pathAuthenticateSMS      = "/api/credential/authenticateSms"
	pathAuthenticateEmail    = "/api/credential/authenticateEmail"
	pathAuthenticatePassword = "/api/credential/authenticatePassword"
	pathQuerySession         = "/api/login/querySession"
	pathGetAccounts          = "/api/newaccount/getAccounts2"
	pathGetTransactions      = "/api/transaction/getUserTransactions"

	apiClientWeb = "WEB"

	challengeReasonDeviceAuth = "DEVICE_AUTH"
	challengeMethodOTP        = "OP"
)
