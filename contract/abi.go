package contract

// BountyBoardABI is the ABI of the deployed bounty board contract.
const BountyBoardABI = `[
  {"type":"function","name":"getBountyCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getBounty","stateMutability":"view","inputs":[{"name":"bountyId","type":"uint256"}],"outputs":[
    {"name":"id","type":"uint256"},
    {"name":"creator","type":"address"},
    {"name":"title","type":"string"},
    {"name":"description","type":"string"},
    {"name":"requirements","type":"string"},
    {"name":"reward","type":"uint256"},
    {"name":"rewardToken","type":"address"},
    {"name":"deadline","type":"uint256"},
    {"name":"completed","type":"bool"},
    {"name":"winnerCount","type":"uint256"},
    {"name":"submissionCount","type":"uint256"},
    {"name":"status","type":"uint8"},
    {"name":"winner","type":"address"}
  ]},
  {"type":"function","name":"getSubmissionCount","stateMutability":"view","inputs":[{"name":"bountyId","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getSubmission","stateMutability":"view","inputs":[{"name":"bountyId","type":"uint256"},{"name":"index","type":"uint256"}],"outputs":[
    {"name":"submitter","type":"address"},
    {"name":"proofHash","type":"string"},
    {"name":"timestamp","type":"uint256"},
    {"name":"approveCount","type":"uint256"},
    {"name":"rejectCount","type":"uint256"},
    {"name":"approved","type":"bool"},
    {"name":"isWinner","type":"bool"},
    {"name":"reward","type":"uint256"}
  ]},
  {"type":"function","name":"hasVoted","stateMutability":"view","inputs":[{"name":"bountyId","type":"uint256"},{"name":"index","type":"uint256"},{"name":"voter","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getUserBounties","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
  {"type":"function","name":"getUserSubmissions","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"bountyIds","type":"uint256[]"},{"name":"submissionIds","type":"uint256[]"}]},
  {"type":"function","name":"getUserReputation","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"createBounty","stateMutability":"payable","inputs":[
    {"name":"title","type":"string"},
    {"name":"description","type":"string"},
    {"name":"requirements","type":"string"},
    {"name":"rewardAmount","type":"uint256"},
    {"name":"deadline","type":"uint256"}
  ],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"cancelBounty","stateMutability":"nonpayable","inputs":[{"name":"bountyId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"submitProof","stateMutability":"nonpayable","inputs":[{"name":"bountyId","type":"uint256"},{"name":"proofHash","type":"string"}],"outputs":[]},
  {"type":"function","name":"verifySubmission","stateMutability":"nonpayable","inputs":[{"name":"bountyId","type":"uint256"},{"name":"submissionIndex","type":"uint256"},{"name":"approve","type":"bool"}],"outputs":[]},
  {"type":"function","name":"setSubmissionReward","stateMutability":"payable","inputs":[{"name":"bountyId","type":"uint256"},{"name":"submissionIndex","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"completeBounty","stateMutability":"nonpayable","inputs":[{"name":"bountyId","type":"uint256"}],"outputs":[]},
  {"type":"event","name":"BountyCreated","anonymous":false,"inputs":[
    {"name":"bountyId","type":"uint256","indexed":true},
    {"name":"creator","type":"address","indexed":true},
    {"name":"reward","type":"uint256","indexed":false},
    {"name":"deadline","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"ProofSubmitted","anonymous":false,"inputs":[
    {"name":"bountyId","type":"uint256","indexed":true},
    {"name":"submissionId","type":"uint256","indexed":false},
    {"name":"submitter","type":"address","indexed":true}
  ]}
]`

const (
	MethodGetBountyCount      = "getBountyCount"
	MethodGetBounty           = "getBounty"
	MethodGetSubmissionCount  = "getSubmissionCount"
	MethodGetSubmission       = "getSubmission"
	MethodHasVoted            = "hasVoted"
	MethodGetUserBounties     = "getUserBounties"
	MethodGetUserSubmissions  = "getUserSubmissions"
	MethodGetUserReputation   = "getUserReputation"
	MethodCreateBounty        = "createBounty"
	MethodCancelBounty        = "cancelBounty"
	MethodSubmitProof         = "submitProof"
	MethodVerifySubmission    = "verifySubmission"
	MethodSetSubmissionReward = "setSubmissionReward"
	MethodCompleteBounty      = "completeBounty"

	EventBountyCreated  = "BountyCreated"
	EventProofSubmitted = "ProofSubmitted"
)
