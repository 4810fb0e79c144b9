package telemetry

// Column names as exported by the machine control software.
const (
	ColEasting         = "CellE_m"
	ColNorthing        = "CellN_m"
	ColElevation       = "Elevation_m"
	ColPassCount       = "PassCount"
	ColTargetPassCount = "TargPassCount"

	ColLastCMV       = "LastCMV"
	ColTargetCMV     = "TargCMV"
	ColLastMDP       = "LastMDP"
	ColTargetMDP     = "TargMDP"
	ColLastRMV       = "LastRMV"
	ColLastFreq      = "LastFreq"
	ColLastAmp       = "LastAmp"
	ColLastTemp      = "LastTemp"
	ColLastEVIB1     = "LastEVIB1"
	ColTargetEVIB1   = "TargEVIB1"
	ColLastEVIB2     = "LastEVIB2"
	ColTargetEVIB2   = "TargEVIB2"
	ColTargThickness = "TargThickness"

	// Not numeric; used by the sort, sample and anonymize utilities.
	ColTime         = "Time"
	ColDesignName   = "DesignName"
	ColMachine      = "Machine"
	ColMeasuredData = "MeasuredData"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{
	ColEasting,
	ColNorthing,
	ColElevation,
	ColPassCount,
	ColTargetPassCount,
}

// SensorColumns are optional numeric readings, loaded when present.
var SensorColumns = []string{
	ColLastCMV,
	ColTargetCMV,
	ColLastMDP,
	ColTargetMDP,
	ColLastRMV,
	ColLastFreq,
	ColLastAmp,
	ColLastTemp,
	ColLastEVIB1,
	ColTargetEVIB1,
	ColLastEVIB2,
	ColTargetEVIB2,
	ColTargThickness,
}

var sensorLabels = map[string]string{
	ColLastCMV:       "Compaction Meter Value",
	ColTargetCMV:     "Target CMV",
	ColLastMDP:       "Machine Drive Power",
	ColTargetMDP:     "Target MDP",
	ColLastRMV:       "Resonance Meter Value",
	ColLastFreq:      "Vibration Frequency",
	ColLastAmp:       "Vibration Amplitude",
	ColLastTemp:      "Material Temperature",
	ColLastEVIB1:     "Vibratory Modulus (drum 1)",
	ColTargetEVIB1:   "Target EVIB1",
	ColLastEVIB2:     "Vibratory Modulus (drum 2)",
	ColTargetEVIB2:   "Target EVIB2",
	ColTargThickness: "Target Layer Thickness",
}

// SensorLabel returns a human name for a sensor column, or the column itself.
func SensorLabel(col string) string {
	if l, ok := sensorLabels[col]; ok {
		return l
	}
	return col
}
