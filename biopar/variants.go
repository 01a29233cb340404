package biopar

// Coefficients of the Sentinel-2 biophysical processor networks (S2ToolBox
// L2B ATBD v1.1). Values are reproduced digit for digit and define the
// output; do not round or reformat them.

var (
	bands8 = []string{"B3", "B4", "B5", "B6", "B7", "B8A", "B11", "B12"}
	bands3 = []string{"B3", "B4", "B8"}

	inputRanges8 = []NormalizationRange{
		{Min: 0, Max: 0.253061520471542},
		{Min: 0, Max: 0.290393577911328},
		{Min: 0, Max: 0.305398915248555},
		{Min: 0.006637972542253, Max: 0.608900395797889},
		{Min: 0.013972727018939, Max: 0.753827384322927},
		{Min: 0.026690138082061, Max: 0.782011770669178},
		{Min: 0.016388074192258, Max: 0.493761397883092},
		{Min: 0, Max: 0.493025984460231},
		{Min: 0.918595400582046, Max: 1},
		{Min: 0.342022871159208, Max: 0.936206429175402},
		{Min: -1, Max: 1},
	}

	inputRanges3 = []NormalizationRange{
		{Min: 0, Max: 0.243425768},
		{Min: 0, Max: 0.297684236},
		{Min: 0.026530282, Max: 0.78139164},
		{Min: 0.918595401, Max: 1},
		{Min: 0.342022871, Max: 0.936206429},
		{Min: -1, Max: 1},
	}

	// Upper reflectance bounds of the training domain.
	thresholds8 = map[string]float64{
		"B3":  0.26,
		"B4":  0.30,
		"B5":  0.32,
		"B6":  0.62,
		"B7":  0.75,
		"B8A": 0.78,
		"B11": 0.52,
		"B12": 0.50,
	}

	// B8 has no published ceiling; the shared visible bands keep theirs.
	thresholds3 = map[string]float64{
		"B3": 0.26,
		"B4": 0.30,
	}
)

var fapar8 = VariantDef{
	Name:        "fapar8",
	Parameter:   FAPAR,
	Bands:       bands8,
	InputRanges: inputRanges8,
	Hidden: []NeuronWeights{
		{Bias: -0.887068364040280, Weights: []float64{0.268714454733421, -0.205473108029835, 0.281765694196018, 1.337443412255980, 0.390319212938497, -3.612714342203350, 0.222530960987244, 0.821790549667255, -0.093664567310731, 0.019290146147447, 0.037364446377188}},
		{Bias: 0.320126471197199, Weights: []float64{-0.248998054599707, -0.571461305473124, -0.369957603466673, 0.246031694650909, 0.332536215252841, 0.438269896208887, 0.819000551890450, -0.934931499059310, 0.082716247651866, -0.286978634108328, -0.035890968351662}},
		{Bias: 0.610523702500117, Weights: []float64{-0.164063575315880, -0.126303285737763, -0.253670784366822, -0.321162835049381, 0.067082287973580, 2.029832288655260, -0.023141228827722, -0.553176625657559, 0.059285451897783, -0.034334454541432, -0.031776704097009}},
		{Bias: -0.379156190833946, Weights: []float64{0.130240753003835, 0.236781035723321, 0.131811664093253, -0.250181799267664, -0.011364149953286, -1.857573214633520, -0.146860751013916, 0.528008831372352, -0.046230769098303, -0.034509608392235, 0.031884395036004}},
		{Bias: 1.353023396690570, Weights: []float64{-0.029929946166941, 0.795804414040809, 0.348025317624568, 0.943567007518504, -0.276341670431501, -2.946594180142590, 0.289483073507500, 1.044006950440180, -0.000413031960419, 0.403331114840215, 0.068427130526696}},
	},
	Output:      NeuronWeights{Bias: -0.336431283973339, Weights: []float64{2.126038811064490, -0.632044932794919, 5.598995787206250, 1.770444140578970, -0.267879583604849}},
	OutputRange: NormalizationRange{Min: 0.000153013463222, Max: 0.977135096979553},
	Thresholds:  thresholds8,
}

var fapar3 = VariantDef{
	Name:        "fapar3",
	Parameter:   FAPAR,
	Bands:       bands3,
	InputRanges: inputRanges3,
	Hidden: []NeuronWeights{
		{Bias: -0.019802303, Weights: []float64{1.063928519, 0.910752392, -0.973014301, -1.26727725, 0.239696855, -0.837005031}},
		{Bias: 2.917991233, Weights: []float64{-1.087124712, 2.869208297, 0.961199343, 0.055681494, -0.267414425, -0.066394844}},
		{Bias: -1.3349831, Weights: []float64{-0.732287638, 0.836483005, -2.273506421, 0.00640356, -0.17567951, -0.022244354}},
		{Bias: -1.38915446, Weights: []float64{-0.627414923, 1.227193715, -2.532473181, -0.025617074, -0.125296835, -0.010849463}},
		{Bias: 0.917074723, Weights: []float64{0.376619209, 1.886599724, -1.841536547, -0.048726519, 0.107025026, 0.005804985}},
	},
	Output:      NeuronWeights{Bias: -0.446230574, Weights: []float64{0.039475758, 0.32828457, 1.149270061, -1.610722043, -0.733977148}},
	OutputRange: NormalizationRange{Min: 0.000153013, Max: 0.977135097},
	Thresholds:  thresholds3,
}

var lai8 = VariantDef{
	Name:        "lai8",
	Parameter:   LAI,
	Bands:       bands8,
	InputRanges: inputRanges8,
	Hidden: []NeuronWeights{
		{Bias: 4.96238030555279, Weights: []float64{-0.023406878966470, 0.921655164636366, 0.135576544080099, -1.938331472397950, -3.342495816122680, 0.902277648009576, 0.205363538258614, -0.040607844721716, -0.083196409727092, 0.260029270773809, 0.284761567218845}},
		{Bias: 1.416008443981500, Weights: []float64{-0.132555480856684, -0.139574837333540, -1.014606016898920, -1.330890038649270, 0.031730624503341, -1.433583541317050, -0.959637898574699, 1.133115706551000, 0.216603876541632, 0.410652303762839, 0.064760155543506}},
		{Bias: 1.075897047213310, Weights: []float64{0.086015977724868, 0.616648776881434, 0.678003876446556, 0.141102398644968, -0.096682206883546, -1.128832638862200, 0.302189102741375, 0.434494937299725, -0.021903699490589, -0.228492476802263, -0.039460537589826}},
		{Bias: 1.533988264655420, Weights: []float64{-0.109366593670404, -0.071046262972729, 0.064582411478320, 2.906325236823160, -0.673873108979163, -3.838051868280840, 1.695979344531530, 0.046950296081713, -0.049709652688365, 0.021829545430994, 0.057483827104091}},
		{Bias: 3.024115930757230, Weights: []float64{-0.089939416159969, 0.175395483106147, -0.081847329172620, 2.219895367487790, 1.713873975136850, 0.713069186099534, 0.138970813499201, -0.060771761518025, 0.124263341255473, 0.210086140404351, -0.183878138700341}},
	},
	Output:      NeuronWeights{Bias: 1.096963107077220, Weights: []float64{-1.500135489728730, -0.096283269121503, -0.194935930577094, -0.352305895755591, 0.075107415847473}},
	OutputRange: NormalizationRange{Min: 0.000319182538301, Max: 14.4675094548151},
	Thresholds:  thresholds8,
}

var lai3 = VariantDef{
	Name:        "lai3",
	Parameter:   LAI,
	Bands:       bands3,
	InputRanges: inputRanges3,
	Hidden: []NeuronWeights{
		{Bias: -1.334407347, Weights: []float64{0.765662655, 0.747236156, -1.441125721, -0.37266707, -0.805029771, 1.514114263}},
		{Bias: -1.259173761, Weights: []float64{-0.587652462, -0.809096664, -0.728566051, -0.803710774, 0.093313347, 1.347624019}},
		{Bias: 0.734655902, Weights: []float64{-0.156091129, 1.426190194, -0.840785867, 0.067236054, -0.32100852, -0.190242198}},
		{Bias: 1.869059826, Weights: []float64{-0.214752449, -0.067188443, -1.636409461, 0.028918314, 0.126143729, 0.104116201}},
		{Bias: 1.594139175, Weights: []float64{1.715027862, 0.871304754, -2.027147985, -0.055184617, 0.008336523, 0.006279199}},
	},
	Output:      NeuronWeights{Bias: 0.480722333, Weights: []float64{0.017013185, -0.044391605, -0.186661848, -1.090955074, -0.260050915}},
	OutputRange: NormalizationRange{Min: 0.000319183, Max: 14.46750945},
	Thresholds:  thresholds3,
}

func init() {
	for _, def := range []VariantDef{fapar8, fapar3, lai8, lai3} {
		register(def)
	}
}
