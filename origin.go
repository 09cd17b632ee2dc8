package sigmux

// RawInfo mirrors the delivery-time signal metadata fields the decoder
// consumes: the signal number, the origin code, and the sender's process
// and user ids when the origin code defines them.
type RawInfo struct {
	Signo int32
	Code  int32
	Pid   int32
	Uid   uint32
}

// OriginKind classifies who generated a signal.
type OriginKind uint8

const (
	// OriginUnknown covers every origin code the platform table does not
	// recognize (hardware faults, timers, tkill variants, ...).
	OriginUnknown OriginKind = iota
	// OriginKernel marks signals the kernel generated itself, on
	// platforms that define a code for it.
	OriginKernel
	// OriginProcess marks signals sent by another (or the same) process;
	// Pid and Uid identify the sender.
	OriginProcess
)

func (k OriginKind) String() string {
	switch k {
	case OriginKernel:
		return "kernel"
	case OriginProcess:
		return "process"
	default:
		return "unknown"
	}
}

// Origin is the decoded provenance of one signal delivery. Pid and Uid are
// meaningful only when Kind is OriginProcess.
type Origin struct {
	Kind OriginKind
	Pid  int32
	Uid  uint32
}

// OriginOf classifies raw delivery metadata. It is a pure decision table
// over fields already present in info — no calls, no allocation — because
// it is meant to be usable from the same restricted context as dispatch.
//
// The origin-code constants it compares against are resolved per platform
// at build time (see the platform_*.go files); codes a platform does not
// define simply never match.
func OriginOf(info RawInfo) Origin {
	switch info.Code {
	case codeUserSent, codeQueued, codeMesgQ:
		return Origin{Kind: OriginProcess, Pid: info.Pid, Uid: info.Uid}
	}
	if hasKernelCode && info.Code == codeKernel {
		return Origin{Kind: OriginKernel}
	}
	return Origin{Kind: OriginUnknown}
}
