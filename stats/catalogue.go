package stats

// The simulator statistics read from every report.
const (
	StatTicks           = "sim_ticks"
	StatInsts           = "sim_insts"
	StatOps             = "sim_ops"
	StatHostOpRate      = "host_op_rate"
	StatAvgMemAccLat    = "system.mem_ctrl.dram.avgMemAccLat"
	StatBusUtil         = "system.mem_ctrl.dram.busUtil"
	StatBandwidthTotal  = "system.mem_ctrl.dram.bw_total::total"
	StatTotBusLat       = "system.mem_ctrl.dram.totBusLat"
	StatAvgWriteBW      = "system.mem_ctrl.dram.avgWrBW"
	StatSimulatorCPUIPC = "system.cpu.ipc"
)

// ticksColumnScale turns raw ticks into the Ticks column unit.
const ticksColumnScale = 1e9

type columnKind int

const (
	rawColumn columnKind = iota
	scaledColumn
	cycleColumn
)

// A Column is one statistic column of the table.
type Column struct {
	Name string
	Stat string

	kind    columnKind
	divisor float64
}

// Names of the columns that the derived metrics are computed from.
const (
	ColumnCycles       = "cycles"
	ColumnInstructions = "instructions"
	ColumnIPC          = "ipc"
	ColumnCPI          = "cpi"
)

// Columns lists the statistic columns in table order.
var Columns = []Column{
	{Name: ColumnCycles, Stat: StatTicks, kind: cycleColumn},
	{Name: ColumnInstructions, Stat: StatInsts},
	{Name: "Ops", Stat: StatOps},
	{Name: "Ticks", Stat: StatTicks, kind: scaledColumn, divisor: ticksColumnScale},
	{Name: "Host", Stat: StatHostOpRate},
	{Name: "avgmemaccesslatency", Stat: StatAvgMemAccLat},
	{Name: "busutilit", Stat: StatBusUtil},
	{Name: "bandwidthtotal", Stat: StatBandwidthTotal},
	{Name: "totalbuslatency", Stat: StatTotBusLat},
	{Name: "averagewritebandwidth", Stat: StatAvgWriteBW},
	{Name: "cpuGem5IPC", Stat: StatSimulatorCPUIPC},
}

// KeyColumns are the leading columns identifying the configuration.
var KeyColumns = []string{
	"benchmark", "cpu", "mem", "dram_model", "clockspeed", "prefetcher",
}

// DerivedColumns follow the statistic columns.
var DerivedColumns = []string{ColumnIPC, ColumnCPI}

// Header returns all column names of the exported table.
func Header() []string {
	h := make([]string, 0, len(KeyColumns)+len(Columns)+len(DerivedColumns))
	h = append(h, KeyColumns...)

	for _, c := range Columns {
		h = append(h, c.Name)
	}

	return append(h, DerivedColumns...)
}

func columnIndex(name string) int {
	for i, c := range Columns {
		if c.Name == name {
			return i
		}
	}

	return -1
}
