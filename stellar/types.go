package stellar

import "github.com/stellar-agentkit/stellarflow/schema"

// Step identifiers.
const (
	StepCreateAccount  = "create-account"
	StepGetAccountInfo = "get-account-info"
	StepCollect        = "collect-account-data"
	StepGenerateReport = "generate-report"
)

// Workflow identifiers.
const (
	WorkflowID       = "stellar-workflow"
	ReportWorkflowID = "stellar-report-workflow"
)

// CreateAccountInput selects the network for a new account.
type CreateAccountInput struct {
	Network string `json:"network"`
}

// AccountData is the create-account envelope. Success is false and the keys
// are empty when the ledger call failed.
type AccountData struct {
	PublicKey string `json:"publicKey"`
	SecretKey string `json:"secretKey"`
	Network   string `json:"network"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
}

// AccountInfoInput names the account to look up.
type AccountInfoInput struct {
	PublicKey string `json:"publicKey"`
}

// AccountInfo is the get-account-info envelope.
type AccountInfo struct {
	AccountID string `json:"accountId"`
	Balance   string `json:"balance"`
	Exists    bool   `json:"exists"`
	Message   string `json:"message"`
}

// ReportInput combines the outputs of the two account steps.
type ReportInput struct {
	AccountData AccountData `json:"accountData"`
	AccountInfo AccountInfo `json:"accountInfo"`
}

// Report is the generated report.
type Report struct {
	Report string `json:"report"`
}

// NetworkInputShape describes {network}, defaulting to testnet.
func NetworkInputShape() *schema.ObjectBuilder {
	return schema.Object().
		Field("network", schema.String().
			Desc("Stellar network to use").
			Enum("testnet", "mainnet").
			Default("testnet"))
}

// AccountDataShape describes AccountData.
func AccountDataShape() *schema.ObjectBuilder {
	return schema.Object().
		Field("publicKey", schema.String().Desc("Account id (G...)").Required()).
		Field("secretKey", schema.String().Desc("Secret seed (S...)").Required()).
		Field("network", schema.String().Required()).
		Field("success", schema.Bool().Required()).
		Field("message", schema.String().Required())
}

// AccountInfoInputShape describes {publicKey}.
func AccountInfoInputShape() *schema.ObjectBuilder {
	return schema.Object().
		Field("publicKey", schema.String().Desc("Account id to look up").Required())
}

// AccountInfoShape describes AccountInfo.
func AccountInfoShape() *schema.ObjectBuilder {
	return schema.Object().
		Field("accountId", schema.String().Required()).
		Field("balance", schema.String().Desc("Native balance in XLM").Required()).
		Field("exists", schema.Bool().Required()).
		Field("message", schema.String().Required())
}

// ReportInputShape describes ReportInput.
func ReportInputShape() *schema.ObjectBuilder {
	return schema.Object().
		Field("accountData", AccountDataShape().Required()).
		Field("accountInfo", AccountInfoShape().Required())
}

// ReportShape describes Report.
func ReportShape() *schema.ObjectBuilder {
	return schema.Object().
		Field("report", schema.String().Required())
}
