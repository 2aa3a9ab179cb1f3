package InputParameters

import (
	"fmt"
	"sort"
	"time"

	"github.com/ghodss/yaml"

	"github.com/notargets/xtalmesh/smooth"
)

// Parameters of the volume mesher, obtained from the YAML input file
type MesherParameters struct {
	Title        string  `json:"Title"`
	WholeSurface string  `json:"WholeSurface"` // Whole domain surface, also the source of the domain extents
	GrainDir     string  `json:"GrainDir"`     // Directory of <label>.stl grain surfaces
	Output       string  `json:"Output"`       // Output base name, .inp and .vtk are appended
	LinearMesh   string  `json:"LinearMesh"`   // Optional Gmsh file for the labelled linear mesh
	Remesher     string  `json:"Remesher"`     // Tet mesher binary
	L2Q          string  `json:"L2Q"`          // Quadratic converter binary, converted in process when empty
	Threshold    float64 `json:"Threshold"`    // Enclosure score above which a centroid is inside a grain
	Order        string  `json:"Order"`        // Grain order: ascending, descending or given
	WaitTimeout  float64 `json:"WaitTimeout"`  // Seconds to wait for external tool output
	PollInterval float64 `json:"PollInterval"` // Seconds between checks for external tool output
}

func MesherDefaults() *MesherParameters {
	return &MesherParameters{
		Title:        "XtalMesh",
		WholeSurface: "Whole.stl",
		GrainDir:     "GrainSTLs",
		Output:       "XtalMesh",
		Remesher:     "/fTetWild/build/FloatTetwild_bin",
		Threshold:    0.01,
		Order:        "ascending",
		WaitTimeout:  time.Hour.Seconds(),
		PollInterval: 10,
	}
}

func (ip *MesherParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (ip *MesherParameters) Timeout() time.Duration { return seconds(ip.WaitTimeout) }
func (ip *MesherParameters) Poll() time.Duration    { return seconds(ip.PollInterval) }

func (ip *MesherParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t= Whole Surface\n", ip.WholeSurface)
	fmt.Printf("[%s]\t\t= Grain Directory\n", ip.GrainDir)
	fmt.Printf("[%s]\t\t= Output\n", ip.Output)
	fmt.Printf("[%s]\t= Remesher\n", ip.Remesher)
	if len(ip.L2Q) == 0 {
		fmt.Printf("[native]\t\t= L2Q\n")
	} else {
		fmt.Printf("[%s]\t\t= L2Q\n", ip.L2Q)
	}
	fmt.Printf("%8.5f\t\t= Threshold\n", ip.Threshold)
	fmt.Printf("[%s]\t\t= Order\n", ip.Order)
	fmt.Printf("%8.1f\t\t= Wait Timeout (s)\n", ip.WaitTimeout)
}

// Parameters of the surface smoother, obtained from the YAML input file
type SmootherParameters struct {
	Title          string              `json:"Title"`
	NodesFile      string              `json:"NodesFile"`
	TrianglesFile  string              `json:"TrianglesFile"`
	NodeTypesFile  string              `json:"NodeTypesFile"`
	FaceLabelsFile string              `json:"FaceLabelsFile"`
	GrainDir       string              `json:"GrainDir"`
	WholeSurface   string              `json:"WholeSurface"`
	Stages         []string            `json:"Stages"` // Stage order, each of ext_triple, int_triple or bound
	Codes          smooth.FeatureCodes `json:"Codes"` // Weight maps merge into the defaults
}

func SmootherDefaults() *SmootherParameters {
	stages := make([]string, len(smooth.DefaultStages))
	for i, s := range smooth.DefaultStages {
		stages[i] = s.String()
	}
	return &SmootherParameters{
		Title:          "XtalSmooth",
		NodesFile:      "nodes.txt",
		TrianglesFile:  "triangles.txt",
		NodeTypesFile:  "nodetype.txt",
		FaceLabelsFile: "facelabels.txt",
		GrainDir:       "GrainSTLs",
		WholeSurface:   "Whole.stl",
		Stages:         stages,
		Codes:          smooth.DefaultFeatureCodes(),
	}
}

func (ip *SmootherParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

// FeatureModes parses Stages
func (ip *SmootherParameters) FeatureModes() ([]smooth.FeatureMode, error) {
	modes := make([]smooth.FeatureMode, len(ip.Stages))
	for i, s := range ip.Stages {
		m, err := smooth.NewFeatureMode(s)
		if err != nil {
			return nil, err
		}
		modes[i] = m
	}
	return modes, nil
}

func (ip *SmootherParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s, %s, %s, %s]\t= Inputs\n", ip.NodesFile, ip.TrianglesFile, ip.NodeTypesFile, ip.FaceLabelsFile)
	fmt.Printf("[%s]\t\t= Grain Directory\n", ip.GrainDir)
	fmt.Printf("%v\t= Stages\n", ip.Stages)
	printCodes := func(name string, codes map[int]float64) {
		keys := make([]int, 0, len(codes))
		for k := range codes {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			fmt.Printf("%s[%d] = %v\n", name, k, codes[k])
		}
	}
	printCodes("ExtTriple", ip.Codes.ExtTriple)
	printCodes("IntTriple", ip.Codes.IntTriple)
	fmt.Printf("Pinned = %v\n", ip.Codes.Pinned)
}
