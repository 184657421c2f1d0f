package depm

// CallingConvention is the calling convention of a procedure.
type CallingConvention int

// Enumeration of calling conventions.  The names are those accepted by the
// `calling_convention` attribute.
const (
	CallConvUnknown CallingConvention = iota
	CallConvC
	CallConvFast
	CallConvCold
	CallConvGHC
	CallConvHiPE
	CallConvPreserveMost
	CallConvPreserveAll
	CallConvSwift
	CallConvCXXFastTLS
	CallConvTail
	CallConvCFGuardCheck
	CallConvPreserveNone
	CallConvX86StdCall
	CallConvX86FastCall
	CallConvARMAPCS
	CallConvARMAAPCS
	CallConvARMAAPCSVFP
	CallConvMSP430Intr
	CallConvX86ThisCall
	CallConvPTXKernel
	CallConvPTXDevice
	CallConvSPIRFunc
	CallConvSPIRKernel
	CallConvIntelOCLBI
	CallConvX86_64SysV
	CallConvWin64
	CallConvX86VectorCall
	CallConvX86Intr
	CallConvAVRIntr
	CallConvAVRSignal
	CallConvX86RegCall
)

var callConvNames = [...]string{
	CallConvUnknown:       "UNKNOWN",
	CallConvC:             "C",
	CallConvFast:          "FAST",
	CallConvCold:          "COLD",
	CallConvGHC:           "GHC",
	CallConvHiPE:          "HIPE",
	CallConvPreserveMost:  "PRESERVE_MOST",
	CallConvPreserveAll:   "PRESERVE_ALL",
	CallConvSwift:         "SWIFT",
	CallConvCXXFastTLS:    "CXX_FAST_TLS",
	CallConvTail:          "TAIL",
	CallConvCFGuardCheck:  "CFGUARD_CHECK",
	CallConvPreserveNone:  "PRESERVE_NONE",
	CallConvX86StdCall:    "X86_STD_CALL",
	CallConvX86FastCall:   "X86_FAST_CALL",
	CallConvARMAPCS:       "ARM_APCS",
	CallConvARMAAPCS:      "ARM_AAPCS",
	CallConvARMAAPCSVFP:   "ARM_AAPCS_VFP",
	CallConvMSP430Intr:    "MSP430_INTR",
	CallConvX86ThisCall:   "X86_THIS_CALL",
	CallConvPTXKernel:     "PTX_KERNEL",
	CallConvPTXDevice:     "PTX_DEVICE",
	CallConvSPIRFunc:      "SPIR_FUNC",
	CallConvSPIRKernel:    "SPIR_KERNEL",
	CallConvIntelOCLBI:    "INTEL_OCL_BI",
	CallConvX86_64SysV:    "X86_64_SYS_V",
	CallConvWin64:         "WIN64",
	CallConvX86VectorCall: "X86_VECTOR_CALL",
	CallConvX86Intr:       "X86_INTR",
	CallConvAVRIntr:       "AVR_INTR",
	CallConvAVRSignal:     "AVR_SIGNAL",
	CallConvX86RegCall:    "X86_REG_CALL",
}

func (cc CallingConvention) String() string {
	if cc >= 0 && int(cc) < len(callConvNames) {
		return callConvNames[cc]
	}

	return "UNKNOWN"
}

// CallingConventionFromName returns the calling convention with the given
// attribute name.
func CallingConventionFromName(name string) (CallingConvention, bool) {
	// alternate spelling
	if name == "X96_THIS_CALL" {
		return CallConvX86ThisCall, true
	}

	for i, n := range callConvNames {
		if i != int(CallConvUnknown) && n == name {
			return CallingConvention(i), true
		}
	}

	return CallConvUnknown, false
}
