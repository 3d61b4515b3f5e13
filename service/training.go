package service

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"credit-risk-agent/domain"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoSamples           = errors.New("no training samples")
	ErrInvalidTrainOptions = errors.New("invalid training options")
)

// TrainOptions control the L-BFGS fit.
type TrainOptions struct {
	Version           string
	Iterations        int
	GradientTolerance float64
	L2Penalty         float64
}

// DefaultTrainOptions returns the options used for the bundled model.
func DefaultTrainOptions() TrainOptions {
	opts := TrainOptions{
		Iterations:        DefaultIterations,
		GradientTolerance: DefaultGradientTolerance,
		L2Penalty:         DefaultL2Penalty,
	}
	opts.Version = ModelVersion(DefaultTrainingSeed, DefaultTrainingSamples, opts)
	return opts
}

// ModelVersion names a model by the data and the fit settings that produced it.
// opts.Version is ignored.
func ModelVersion(seed int64, samples int, opts TrainOptions) string {
	return fmt.Sprintf("logreg-s%d-n%d-i%d-g%g-l%g",
		seed, samples, opts.Iterations, opts.GradientTolerance, opts.L2Penalty)
}

// GenerateApplicants builds a synthetic, labelled applicant book.
// The same seed always yields the same rows.
func GenerateApplicants(n int, seed int64) []domain.Applicant {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))

	applicants := make([]domain.Applicant, n)
	for i := range applicants {
		features := domain.ApplicantFeatures{
			CreditScore:      450 + rng.IntN(400),
			DebtToIncome:     0.1 + 0.6*rng.Float64(),
			NumDelinquencies: rng.IntN(5),
			LoanTermMonths:   domain.LoanTerms[rng.IntN(len(domain.LoanTerms))],
		}
		applicants[i] = domain.Applicant{
			Features: features,
			Default:  IsSyntheticDefault(features),
		}
	}
	return applicants
}

// IsSyntheticDefault is the labelling rule of the synthetic data set.
func IsSyntheticDefault(f domain.ApplicantFeatures) bool {
	risk := LabelCreditScoreWeight*float64(f.CreditScore) +
		LabelDebtToIncomeWeight*f.DebtToIncome +
		LabelDelinquencyWeight*float64(f.NumDelinquencies)
	return risk > LabelRiskCutoff
}

// Train fits an L2-regularised logistic regression by minimising the mean
// log-loss with L-BFGS. Columns are standardised for the fit and the weights
// are mapped back to the raw feature scale. The intercept is not penalised.
func Train(samples []domain.Applicant, opts TrainOptions) (domain.Model, error) {
	if len(samples) == 0 {
		return domain.Model{}, ErrNoSamples
	}
	if opts.Iterations <= 0 || opts.GradientTolerance <= 0 || opts.L2Penalty < 0 {
		return domain.Model{}, fmt.Errorf("%w: iterations=%d gradient_tolerance=%g l2=%g",
			ErrInvalidTrainOptions, opts.Iterations, opts.GradientTolerance, opts.L2Penalty)
	}

	n, d := len(samples), len(domain.Features)

	raw := mat.NewDense(n, d, nil)
	labels := mat.NewVecDense(n, nil)
	for i, s := range samples {
		raw.SetRow(i, s.Features.Vector())
		if s.Default {
			labels.SetVec(i, 1)
		}
	}

	mean, std := columnStats(raw)
	x := mat.NewDense(n, d, nil)
	x.Apply(func(_, j int, v float64) float64 { return (v - mean[j]) / std[j] }, raw)

	loss := newLogLoss(x, labels, opts.L2Penalty)
	result, err := optimize.Minimize(
		optimize.Problem{Func: loss.value, Grad: loss.gradient},
		make([]float64, d+1),
		&optimize.Settings{
			MajorIterations:   opts.Iterations,
			GradientThreshold: opts.GradientTolerance,
		},
		&optimize.LBFGS{},
	)
	// The iteration limit or a late line-search failure still leaves a usable point.
	if result == nil || len(result.X) != d+1 || floats.HasNaN(result.X) {
		return domain.Model{}, fmt.Errorf("fit logistic regression: %w", err)
	}

	bias, weights := result.X[0], result.X[1:]
	coefficients := make(domain.ModelCoefficients, d)
	intercept := bias
	for j, feature := range domain.Features {
		coefficients[feature] = weights[j] / std[j]
		intercept -= weights[j] * mean[j] / std[j]
	}

	model := domain.Model{
		Version:      opts.Version,
		Intercept:    intercept,
		Coefficients: coefficients,
		TrainedAt:    time.Now().UTC(),
		Samples:      n,
	}
	model.Metrics = MeasureFit(NewLogisticClassifier(model), samples)

	return model, nil
}

// logLoss is the penalised mean log-loss over a standardised design matrix.
// params[0] is the intercept, params[1:] the weights.
type logLoss struct {
	x        *mat.Dense
	y        *mat.VecDense
	l2       float64
	z        *mat.VecDense
	residual *mat.VecDense
}

func newLogLoss(x *mat.Dense, y *mat.VecDense, l2 float64) *logLoss {
	n, _ := x.Dims()
	return &logLoss{
		x:        x,
		y:        y,
		l2:       l2,
		z:        mat.NewVecDense(n, nil),
		residual: mat.NewVecDense(n, nil),
	}
}

func (l *logLoss) linear(params []float64) {
	l.z.MulVec(l.x, mat.NewVecDense(len(params)-1, params[1:]))
	for i := 0; i < l.z.Len(); i++ {
		l.z.SetVec(i, l.z.AtVec(i)+params[0])
	}
}

func (l *logLoss) value(params []float64) float64 {
	l.linear(params)

	n := l.z.Len()
	var sum float64
	for i := 0; i < n; i++ {
		z := l.z.AtVec(i)
		sum += softplus(z) - l.y.AtVec(i)*z
	}
	weights := params[1:]
	return sum/float64(n) + 0.5*l.l2*floats.Dot(weights, weights)
}

func (l *logLoss) gradient(grad, params []float64) {
	l.linear(params)

	n := l.z.Len()
	for i := 0; i < n; i++ {
		l.residual.SetVec(i, sigmoid(l.z.AtVec(i))-l.y.AtVec(i))
	}

	grad[0] = mat.Sum(l.residual) / float64(n)
	gradW := mat.NewVecDense(len(grad)-1, grad[1:])
	gradW.MulVec(l.x.T(), l.residual)
	gradW.ScaleVec(1/float64(n), gradW)
	floats.AddScaled(grad[1:], l.l2, params[1:])
}

// softplus is log(1+e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

// MeasureFit scores the classifier against labelled samples.
func MeasureFit(classifier Classifier, samples []domain.Applicant) domain.TrainingMetrics {
	if len(samples) == 0 {
		return domain.TrainingMetrics{}
	}

	scores := make([]float64, len(samples))
	labels := make([]bool, len(samples))
	correct, defaults := 0, 0
	for i, s := range samples {
		scores[i] = classifier.PredictProba(s.Features)
		labels[i] = s.Default
		if (scores[i] >= AcceptThreshold) == s.Default {
			correct++
		}
		if s.Default {
			defaults++
		}
	}

	return domain.TrainingMetrics{
		Accuracy:    roundTo4Decimals(float64(correct) / float64(len(samples))),
		ROCAUC:      roundTo4Decimals(rocAUC(scores, labels)),
		DefaultRate: roundTo4Decimals(float64(defaults) / float64(len(samples))),
	}
}

// rocAUC integrates the ROC curve. Tied scores share one cutoff.
// With a single class present it returns 0.5.
func rocAUC(scores []float64, labels []bool) float64 {
	pos := 0
	for _, label := range labels {
		if label {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return 0.5
	}

	sorted := append([]float64(nil), scores...)
	order := make([]int, len(sorted))
	floats.Argsort(sorted, order)

	classes := make([]bool, len(order))
	for i, idx := range order {
		classes[i] = labels[idx]
	}

	tpr, fpr, _ := stat.ROC(nil, sorted, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

// columnStats returns per-column mean and standard deviation. A constant
// column gets a deviation of 1 so it standardises to zero.
func columnStats(x mat.Matrix) (mean, std []float64) {
	_, d := x.Dims()
	mean = make([]float64, d)
	std = make([]float64, d)

	var col []float64
	for j := 0; j < d; j++ {
		col = mat.Col(col, j, x)
		mean[j], std[j] = stat.MeanStdDev(col, nil)
		if std[j] == 0 || math.IsNaN(std[j]) {
			std[j] = 1
		}
	}
	return mean, std
}

func roundTo4Decimals(value float64) float64 {
	return math.Round(value*10000) / 10000
}
