package models

// Agreement is a transfer agreement (convênio) as returned by the Atena API.
// Records are read-only; a search replaces the whole list.
type Agreement struct {
	ID                  string               `json:"id"`
	AgreementID         string               `json:"agreementId"`
	Name                string               `json:"name"`
	Start               Date                 `json:"start"`
	End                 Date                 `json:"end"`
	Program             string               `json:"program"`
	Status              string               `json:"status,omitempty"`
	ProposalData        ProposalData         `json:"proposalData"`
	ConvenientExecution *ConvenientExecution `json:"convenientExecution,omitempty"`
	Accountability      *Accountability      `json:"accountability,omitempty"`

	// Processes holds execution processes sent flat on the agreement, as
	// some payloads do instead of nesting them under convenientExecution.
	Processes []ExecutionProcess `json:"executionProcesses,omitempty"`
}

// ExecutionProcesses returns the nested execution processes followed by the
// flat ones. Nil-safe.
func (a Agreement) ExecutionProcesses() []ExecutionProcess {
	if a.ConvenientExecution == nil || len(a.ConvenientExecution.ExecutionProcesses) == 0 {
		return a.Processes
	}
	if len(a.Processes) == 0 {
		return a.ConvenientExecution.ExecutionProcesses
	}
	out := make([]ExecutionProcess, 0, len(a.ConvenientExecution.ExecutionProcesses)+len(a.Processes))
	out = append(out, a.ConvenientExecution.ExecutionProcesses...)
	return append(out, a.Processes...)
}

// Contracts returns the agreement's contracts, nil-safe.
func (a Agreement) Contracts() []Contract {
	if a.ConvenientExecution == nil {
		return nil
	}
	return a.ConvenientExecution.Contracts
}

// TotalValue sums the program values of the proposal.
func (a Agreement) TotalValue() float64 {
	var total float64
	for _, p := range a.ProposalData.Programs {
		total += p.Value
	}
	return total
}

type ProposalData struct {
	Data     ProposalDetails `json:"data"`
	Programs []Program       `json:"programs"`
}

type ProposalDetails struct {
	Modality                      string         `json:"modality"`
	ContractingStatus             string         `json:"contractingStatus"`
	ProposalID                    string         `json:"proposalId"`
	OrganID                       string         `json:"organId"`
	ProcessID                     string         `json:"proccessId"`
	Proponent                     string         `json:"proponent"`
	LegalFoundation               string         `json:"legalFoundation"`
	Organ                         string         `json:"organ"`
	LinkedOrgan                   string         `json:"linkedOrgan"`
	Description                   string         `json:"description"`
	Justification                 string         `json:"justification"`
	TargetAudience                string         `json:"targetAudience"`
	Problem                       string         `json:"problem"`
	Result                        string         `json:"result"`
	ProposalAndObjectivesRelation string         `json:"proposalAndObjectivesRelation"`
	Categories                    string         `json:"categories"`
	Object                        string         `json:"object"`
	Information                   string         `json:"information"`
	ProposalDate                  Date           `json:"proposalDate"`
	BiddingDate                   Date           `json:"biddingDate"`
	HomologationDate              Date           `json:"homologationDate"`
	Status                        ProposalStatus `json:"status"`
}

type ProposalStatus struct {
	Value       string `json:"value"`
	Committed   string `json:"committed"`
	Publication string `json:"publication"`
}

type Program struct {
	ProgramID int            `json:"programId"`
	Name      string         `json:"name"`
	Value     float64        `json:"value"`
	Details   ProgramDetails `json:"details"`
}

// ProgramDetails keeps the API's "couterpart" spelling on the wire.
type ProgramDetails struct {
	CPS              string            `json:"cps"`
	Items            string            `json:"items"`
	CounterpartRule  string            `json:"couterpartRule"`
	TotalValue       float64           `json:"totalValue"`
	CounterpartValue *CounterpartValue `json:"couterpartValues"`
	TransferValues   *TransferValues   `json:"transferValues"`
}

type CounterpartValue struct {
	Total             float64 `json:"total"`
	Financial         float64 `json:"financial"`
	AssetsAndServices float64 `json:"assetsAndServices"`
}

type TransferValues struct {
	Total     float64 `json:"total"`
	Amendment string  `json:"amendment"`
}

type ConvenientExecution struct {
	ExecutionProcesses []ExecutionProcess `json:"executionProcesses"`
	Contracts          []Contract         `json:"contracts"`
}

// ExecutionProcess is a procurement step (bidding, waiver...) of an agreement.
// Acceptance is reported either at the top level or inside details.
type ExecutionProcess struct {
	ID       string                  `json:"id,omitempty"`
	Accepted string                  `json:"accepted,omitempty"`
	Details  ExecutionProcessDetails `json:"details"`
}

// Acceptance returns the acceptance text, preferring the top-level field.
func (p ExecutionProcess) Acceptance() string {
	if p.Accepted != "" {
		return p.Accepted
	}
	return p.Details.Accepted
}

type ExecutionProcessDetails struct {
	ExecutionProcess string  `json:"executionProcess"`
	BuyType          string  `json:"buyType"`
	Status           string  `json:"status"`
	Modality         string  `json:"modality"`
	BiddingType      string  `json:"biddingType"`
	ProcessID        string  `json:"processId"`
	BiddingID        string  `json:"biddingId"`
	Object           string  `json:"object"`
	LegalFoundation  string  `json:"legalFoundation"`
	Justification    string  `json:"justification"`
	PublishDate      Date    `json:"publishDate"`
	BeginDate        Date    `json:"beginDate"`
	EndDate          Date    `json:"endDate"`
	HomologationDate Date    `json:"homologationDate"`
	BiddingValue     float64 `json:"biddingValue"`
	AnalysisDate     Date    `json:"analysisDate"`
	Accepted         string  `json:"accepted"`
}

type Contract struct {
	ID      string          `json:"id,omitempty"`
	Details ContractDetails `json:"details"`
}

type ContractDetails struct {
	ContractID   string  `json:"contractId"`
	BiddingID    string  `json:"biddingId"`
	ContractDate Date    `json:"contractDate"`
	PublishDate  Date    `json:"publishDate"`
	BeginDate    Date    `json:"beginDate"`
	EndDate      Date    `json:"endDate"`
	Value        float64 `json:"value"`
	Object       string  `json:"object"`
	Accepted     string  `json:"accepted"`
}

// Accountability is the post-execution financial report (prestação de contas).
type Accountability struct {
	Data AccountabilityData `json:"data"`
}

type AccountabilityData struct {
	Organ            string  `json:"organ"`
	Convenient       string  `json:"convenient"`
	DocumentNumber   string  `json:"documentNumber"`
	Modality         string  `json:"modality"`
	Status           string  `json:"status"`
	Number           string  `json:"number"`
	Validity         string  `json:"validity"`
	LimitDate        Date    `json:"limitDate"`
	TotalValue       float64 `json:"totalValue"`
	TransferValue    float64 `json:"transferValue"`
	CounterpartValue float64 `json:"counterpartValue"`
	YieldValue       float64 `json:"yieldValue"`
}
