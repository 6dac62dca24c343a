package lis2dw12

// I2C addresses, SA0 low then high.
const (
	addrPrimary   = 0x18
	addrSecondary = 0x19

	whoAmIVal = 0x44
)

const (
	regOutTL       = 0x0D
	regWhoAmI      = 0x0F
	regCtrl1       = 0x20
	regCtrl2       = 0x21
	regCtrl3       = 0x22
	regCtrl4Int1   = 0x23
	regCtrl5Int2   = 0x24
	regCtrl6       = 0x25
	regStatus      = 0x27
	regOutXL       = 0x28
	regFIFOCtrl    = 0x2E
	regFIFOSamples = 0x2F
	regTapThsX     = 0x30
	regTapThsY     = 0x31
	regTapThsZ     = 0x32
	regIntDur      = 0x33
	regWakeUpThs   = 0x34
	regWakeUpDur   = 0x35
	regAllIntSrc   = 0x3B
	regXOfsUsr     = 0x3C
	regYOfsUsr     = 0x3D
	regZOfsUsr     = 0x3E
	regCtrl7       = 0x3F

	regFirst = regOutTL
	regLast  = regCtrl7
)

// ALL_INT_SRC bits.
const (
	intSrcSingleTap = 1 << 2
	intSrcWakeUp    = 1 << 1
)

// STATUS bits.
const (
	statusSleepState = 1 << 5
	statusDRDY       = 1 << 0
)

const (
	ctrl1ODRBase  = 0x02 // 12.5 Hz, low-power mode 1
	ctrl1ODRShift = 4

	ctrl2SoftReset = 0x40
	ctrl2Common    = 0x0C // IF_ADD_INC | BDU
	ctrl3Latched   = 0x12 // LIR | SLP_MODE_SEL

	ctrl4SingleTap  = 0x40
	ctrl5SleepState = 0x40

	ctrl6FSShift    = 4
	ctrl6BWODROver2 = 0x00

	ctrl7Default    = 0x60 // INT2_ON_INT1 | INTERRUPTS_ENABLE
	ctrl7UsrOffOnWU = 1 << 3
	ctrl7UsrOffW    = 1 << 2

	fifoCtrlContinuous = 0xC0 | 30
	fifoSamplesMask    = 0x3F

	wakeUpThsSleepOn  = 1 << 6
	wakeUpThsMask     = 0x3F
	wakeUpDurShift    = 5
	wakeUpDurSleepMax = 0x0F

	tapXEn        = 1 << 7
	tapYEn        = 1 << 6
	tapZEn        = 1 << 5
	tapThsMask    = 0x1F
	intDurDefault = 0x0F
)

// FIFO geometry.
const (
	fifoDepth  = 32
	sampleSize = 6
)
